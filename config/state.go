package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"lavinder/log"
)

const (
	StateFileName = "restart-state.json"
	// DefaultLockTimeout is the default timeout for acquiring locks
	DefaultLockTimeout = 5 * time.Second
)

// GroupState records one group across a restart.
type GroupState struct {
	Name   string `json:"name"`
	Layout string `json:"layout"`
	Label  string `json:"label,omitempty"`
}

// State is what a running manager hands to the process that replaces it on
// restart: the groups in order, which group each screen shows and the
// focused screen.
type State struct {
	Groups        []GroupState   `json:"groups"`
	Screens       map[int]string `json:"screens"`
	CurrentScreen int            `json:"current_screen"`

	lockTimeout time.Duration
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Screens:     make(map[int]string),
		lockTimeout: DefaultLockTimeout,
	}
}

// DefaultStatePath returns a fresh path in the cache directory for handing
// state to a restarted manager.
func DefaultStatePath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("%d-%s", os.Getpid(), StateFileName))
}

func lockFor(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// SaveState writes the state to path with an exclusive write lock.
func SaveState(s *State, path string) error {
	timeout := s.lockTimeout
	if timeout == 0 {
		timeout = DefaultLockTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	lock := lockFor(path)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire write lock within timeout")
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to a temporary file first to ensure atomicity
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to atomically update state file: %w", err)
	}
	return nil
}

// LoadState reads the state written by SaveState under a shared lock and
// removes the file. State files are single use.
func LoadState(path string) (*State, error) {
	lock := lockFor(path)
	ctx, cancel := context.WithTimeout(context.Background(), DefaultLockTimeout)
	defer cancel()
	locked, err := lock.TryRLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire read lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire read lock within timeout")
	}
	defer func() {
		lock.Unlock()
		os.Remove(path + ".lock")
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	s := NewState()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if s.Screens == nil {
		s.Screens = make(map[int]string)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WarningLog.Printf("failed to remove state file %s: %v", path, err)
	}
	return s, nil
}
