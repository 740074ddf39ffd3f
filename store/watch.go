package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// WatchMetadata uses fsnotify to monitor the metadata file and calls onChange
// after every write to it. Blocks until the context is cancelled.
func WatchMetadata(ctx context.Context, path string, onChange func(path string)) error {
	// fsnotify emits cleaned paths, so a caller's ./relative form would
	// never match event names
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %v", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and the index itself
	// replace the file on write, which would drop a file-level watch.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add %s to watcher: %v", dir, err)
	}

	log.Infof("Started watching file: %s", path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Name != path {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.Debugf("Metadata file modified: %s", path)
				onChange(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("Watcher error: %v", err)

		case <-ctx.Done():
			log.Info("Stopping watcher")
			return nil
		}
	}
}
