// Package daemon runs a manager process: it loads the configuration, opens
// the display, serves the command socket and restarts in place on request.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/gofrs/flock"

	"lavinder/command"
	"lavinder/config"
	"lavinder/ipc"
	"lavinder/log"
	"lavinder/manager"
	"lavinder/x11"
)

// Options configure Run.
type Options struct {
	// ConfigPath is the configuration file; empty means the default path.
	ConfigPath string
	// SocketPath overrides the socket path from the config and display.
	SocketPath string
	Display    string
	// LogLevel overrides the configured log level.
	LogLevel string
	// StatePath is a state file left by a restarting manager.
	StatePath string
	// NoSpawn skips the autostart commands.
	NoSpawn bool
	// Headless runs without a display server.
	Headless bool

	// OpenBackend replaces the display backend, for tests.
	OpenBackend func(display string) (manager.Backend, error)
	// Exec replaces the process on restart. It defaults to execve.
	Exec func(argv0 string, argv []string, env []string) error
	// Ready is closed once the socket accepts requests.
	Ready chan<- struct{}
}

// ErrAlreadyRunning is returned when another manager holds the display.
var ErrAlreadyRunning = errors.New("another manager is already running on this display")

// Run runs a manager until it is shut down or ctx is done. On restart the
// state is saved and the process re-executes itself; Run only returns in
// that case if the exec fails.
func Run(ctx context.Context, opts Options) error {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		cfgPath = p
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sockPath := opts.SocketPath
	if sockPath == "" {
		sockPath = cfg.Socket
	}
	if sockPath == "" {
		if sockPath, err = ipc.FindSockfile(opts.Display); err != nil {
			return err
		}
	}

	lock := flock.New(sockPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	defer lock.Unlock()

	logCfg := cfg.LogConfig()
	if opts.LogLevel != "" {
		logCfg.Level = opts.LogLevel
	}
	log.InitializeWithConfig(false, logCfg)
	defer log.Close()
	log.InfoLog.Printf("starting manager, config %s", cfgPath)

	backend, err := openBackend(opts)
	if err != nil {
		return err
	}
	defer backend.Close()

	m, err := manager.New(cfg, backend, manager.Options{
		Display:    ipc.NormalizeDisplay(opts.Display),
		SocketPath: sockPath,
		ConfigPath: cfgPath,
		NoSpawn:    opts.NoSpawn,
		Hooks: manager.Hooks{
			Reload: func() (*config.Config, error) { return config.LoadConfig(cfgPath) },
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start manager: %w", err)
	}
	if opts.StatePath != "" {
		st, err := config.LoadState(opts.StatePath)
		if err != nil {
			log.ErrorLog.Printf("failed to restore state: %v", err)
		} else {
			m.Apply(st)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	serveCtx, cancelServe := context.WithCancel(ctx)
	var wg sync.WaitGroup

	srv := ipc.NewServer(sockPath, m.Handle)
	serveErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		serveErr <- srv.Serve(serveCtx, ipc.ServeOpts{Ready: opts.Ready})
	}()

	if cfg.ReloadOnChange {
		w, err := newConfigWatcher(cfgPath, func() {
			out := m.Handle(command.Request{Name: "reload_config"})
			if out.Status != command.Success {
				log.ErrorLog.Printf("reload_config: %v", out.Value)
			}
		})
		if err != nil {
			log.ErrorLog.Printf("failed to watch config: %v", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.run(serveCtx)
			}()
		}
	}

	runErr := m.Run(ctx)
	cancelServe()
	wg.Wait()
	if err := <-serveErr; err != nil {
		log.ErrorLog.Printf("command server: %v", err)
	}

	if !errors.Is(runErr, manager.ErrRestart) {
		log.InfoLog.Printf("manager stopped")
		return runErr
	}
	statePath, err := saveRestartState(m)
	if err != nil {
		return err
	}
	lock.Unlock()
	backend.Close()
	return restart(opts, statePath)
}

func openBackend(opts Options) (manager.Backend, error) {
	switch {
	case opts.OpenBackend != nil:
		return opts.OpenBackend(opts.Display)
	case opts.Headless:
		return manager.NewHeadless(), nil
	}
	c, err := x11.Open(opts.Display)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func saveRestartState(m *manager.Manager) (string, error) {
	dir, err := ipc.CacheDir()
	if err != nil {
		return "", err
	}
	path := config.DefaultStatePath(dir)
	if err := config.SaveState(m.Capture(), path); err != nil {
		return "", fmt.Errorf("failed to save restart state: %w", err)
	}
	return path, nil
}

// restart re-executes the running binary with the state file, dropping any
// state flag it was started with. Autostart commands are not run again.
func restart(opts Options, statePath string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	argv := restartArgs(os.Args, statePath)
	log.InfoLog.Printf("restarting: %s %v", exe, argv[1:])
	log.Close()

	exec := opts.Exec
	if exec == nil {
		exec = execve
	}
	return exec(filepath.Clean(exe), argv, os.Environ())
}

func restartArgs(args []string, statePath string) []string {
	out := []string{args[0]}
	noSpawn := false
	for i := 1; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--with-state":
			i++
			continue
		case strings.HasPrefix(a, "--with-state="):
			continue
		case a == "--no-spawn" || a == "-n":
			noSpawn = true
		}
		out = append(out, a)
	}
	if !noSpawn {
		out = append(out, "--no-spawn")
	}
	return append(out, "--with-state", statePath)
}
