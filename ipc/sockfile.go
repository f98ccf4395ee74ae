package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// SocketPrefix is the file name prefix of manager sockets.
const SocketPrefix = "lavindersocket."

// CacheDir returns $XDG_CACHE_HOME/lavinder, or ~/.cache/lavinder.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "lavinder"), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "lavinder"), nil
}

// NormalizeDisplay fills in the default display and screen number:
// "" becomes $DISPLAY or ":0.0", and ":1" becomes ":1.0".
func NormalizeDisplay(display string) string {
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		display = ":0.0"
	}
	if !strings.Contains(display, ".") {
		display += ".0"
	}
	return display
}

// FindSockfile returns the socket path of the manager for display, creating
// the cache directory if needed.
func FindSockfile(display string) (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return filepath.Join(dir, SocketPrefix+NormalizeDisplay(display)), nil
}
