package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	DebugLog   *log.Logger
	InfoLog    *log.Logger
	WarningLog *log.Logger
	ErrorLog   *log.Logger

	// Global config reference
	globalConfig *LogConfig
)

// Level is a logging threshold. Messages below the current level are dropped.
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	WarningLevel
	ErrorLevel
	CriticalLevel
)

var levelNames = map[Level]string{
	DebugLevel:    "DEBUG",
	InfoLevel:     "INFO",
	WarningLevel:  "WARNING",
	ErrorLevel:    "ERROR",
	CriticalLevel: "CRITICAL",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Level(%d)", int32(l))
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for l, n := range levelNames {
		if n == up {
			return l, nil
		}
	}
	return WarningLevel, fmt.Errorf("unknown log level %q", s)
}

var currentLevel atomic.Int32

// SetLevel changes the threshold at runtime.
func SetLevel(l Level) { currentLevel.Store(int32(l)) }

// CurrentLevel returns the threshold.
func CurrentLevel() Level { return Level(currentLevel.Load()) }

// levelWriter drops writes of loggers below the current level.
type levelWriter struct {
	level Level
	w     io.Writer
}

func (lw *levelWriter) Write(p []byte) (int, error) {
	if lw.level < CurrentLevel() {
		return len(p), nil
	}
	return lw.w.Write(p)
}

// LogConfig holds logging configuration
type LogConfig struct {
	LogsEnabled bool
	LogsDir     string
	LogMaxSize  int
	LogMaxFiles int
	LogMaxAge   int
	LogCompress bool
	Level       string
}

// DefaultLogConfig returns the default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		LogsEnabled: true,
		LogsDir:     "",
		LogMaxSize:  10, // 10MB
		LogMaxFiles: 5,  // 5 backups
		LogMaxAge:   30, // 30 days
		LogCompress: true,
		Level:       "WARNING",
	}
}

// Default log directory and filename
var logFileName = filepath.Join(os.TempDir(), "lavinder.log")

// GetDataDir returns the directory lavinder keeps its data in:
// $XDG_DATA_HOME/lavinder, or ~/.local/share/lavinder.
func GetDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "lavinder"), nil
	}
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "lavinder"), nil
}

// GetLogDir returns the directory where logs should be stored
func GetLogDir(cfg *LogConfig) (string, error) {
	// If logging is disabled, return temp directory
	if cfg != nil && !cfg.LogsEnabled {
		return os.TempDir(), nil
	}

	if cfg != nil && cfg.LogsDir != "" {
		return homedir.Expand(cfg.LogsDir)
	}

	dataDir, err := GetDataDir()
	if err != nil {
		return os.TempDir(), fmt.Errorf("failed to get data directory: %w", err)
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return os.TempDir(), fmt.Errorf("failed to create log directory: %w", err)
	}

	return logDir, nil
}

// GetLogFilePath returns the full path to the log file
func GetLogFilePath(cfg *LogConfig) (string, error) {
	logDir, err := GetLogDir(cfg)
	if err != nil {
		return logFileName, err
	}

	return filepath.Join(logDir, "lavinder.log"), nil
}

var globalLogFile io.WriteCloser

func init() {
	// Log calls must not panic in tests or before Initialize.
	SetLevel(WarningLevel)
	setLoggers(os.Stderr, "%s", log.Ldate|log.Ltime)
}

func setLoggers(w io.Writer, prefixFmt string, flags int) {
	DebugLog = log.New(&levelWriter{DebugLevel, w}, fmt.Sprintf(prefixFmt, "DEBUG: "), flags)
	InfoLog = log.New(&levelWriter{InfoLevel, w}, fmt.Sprintf(prefixFmt, "INFO: "), flags)
	WarningLog = log.New(&levelWriter{WarningLevel, w}, fmt.Sprintf(prefixFmt, "WARNING: "), flags)
	ErrorLog = log.New(&levelWriter{ErrorLevel, w}, fmt.Sprintf(prefixFmt, "ERROR: "), flags)
}

// Initialize should be called once at the beginning of the program to set up logging.
// defer Close() after calling this function. Client processes (the command line
// client and the shell) tag their lines with [CLIENT].
func Initialize(client bool) {
	initializeWithConfig(client, DefaultLogConfig())
}

// InitializeWithConfig sets up logging with the provided configuration.
func InitializeWithConfig(client bool, cfg *LogConfig) {
	if cfg == nil {
		cfg = DefaultLogConfig()
	}
	initializeWithConfig(client, cfg)
}

// createRotatingWriter creates a writer that handles log rotation based on config
func createRotatingWriter(logFilePath string, cfg *LogConfig) io.Writer {
	if cfg == nil || cfg.LogMaxSize <= 0 {
		logDir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			panic(fmt.Sprintf("could not create log directory: %s", err))
		}

		// No rotation, use standard file
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			panic(fmt.Sprintf("could not open log file: %s", err))
		}
		return f
	}

	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.LogMaxSize,  // megabytes
		MaxBackups: cfg.LogMaxFiles, // number of backups
		MaxAge:     cfg.LogMaxAge,   // days
		Compress:   cfg.LogCompress, // compress rotated files
		LocalTime:  true,
	}
}

func initializeWithConfig(client bool, cfg *LogConfig) {
	globalConfig = cfg
	if cfg.Level != "" {
		if l, err := ParseLevel(cfg.Level); err == nil {
			SetLevel(l)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %v, using %s\n", err, CurrentLevel())
		}
	}

	logFilePath, err := GetLogFilePath(cfg)
	if err != nil {
		fmt.Printf("Warning: Using default log file location due to error: %v\n", err)
		logFilePath = logFileName
	}

	writer := createRotatingWriter(logFilePath, cfg)

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	fmtS := "%s"
	if client {
		fmtS = "[CLIENT] %s"
	}
	setLoggers(writer, fmtS, log.Ldate|log.Ltime|log.Lshortfile)

	if closer, ok := writer.(io.WriteCloser); ok {
		globalLogFile = closer
	}

	logFileName = logFilePath
}

// Config returns the configuration of the last Initialize, or nil.
func Config() *LogConfig { return globalConfig }

// FilePath returns the file the loggers currently write to.
func FilePath() string { return logFileName }

func Close() {
	if globalLogFile != nil {
		_ = globalLogFile.Close()
		globalLogFile = nil
	}
}

// Every is used to log at most once every timeout duration. It is safe for
// concurrent use.
type Every struct {
	mu      sync.Mutex
	timeout time.Duration
	timer   *time.Timer
}

func NewEvery(timeout time.Duration) *Every {
	return &Every{timeout: timeout}
}

// ShouldLog returns true if the timeout has passed since the last log.
func (e *Every) ShouldLog() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer == nil {
		e.timer = time.NewTimer(e.timeout)
		e.timer.Reset(e.timeout)
		return true
	}

	select {
	case <-e.timer.C:
		e.timer.Reset(e.timeout)
		return true
	default:
		return false
	}
}
