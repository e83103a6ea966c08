package config

import (
	"context"
	"path/filepath"
	"time"

	"signalrelay/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it changes on disk and invokes
// onChange with the freshly validated result. Only settings the caller applies
// from onChange take effect at runtime (log level); everything else is fixed
// for the process lifetime. Blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops the
	// watch when pointed at the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()
	reload := func() {
		cfg, err := Load(target)
		if err != nil {
			logger.Warnf("config: reload failed, keeping previous settings: %v", err)
			return
		}
		logger.Infof("config: reloaded %s", target)
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// Debounce editor write bursts.
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("config: watcher error: %v", err)
		}
	}
}
