package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lavinder/log"
)

// reloadDelay lets an editor finish writing before the file is read.
const reloadDelay = 500 * time.Millisecond

// debouncer runs the last triggered function once triggers have settled.
type debouncer struct {
	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// configWatcher calls onChange after the config file was written. It watches
// the directory so files replaced by rename are still seen.
type configWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	debounce debouncer
}

func newConfigWatcher(path string, onChange func()) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	log.InfoLog.Printf("watching config file for changes: %s", path)
	return &configWatcher{watcher: w, path: path, onChange: onChange, debounce: debouncer{delay: reloadDelay}}, nil
}

func (c *configWatcher) run(ctx context.Context) {
	defer c.watcher.Close()
	defer c.debounce.stop()
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != c.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				log.InfoLog.Printf("config file changed: %s", ev)
				c.debounce.trigger(c.onChange)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			log.ErrorLog.Printf("watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}
