package rod

import (
	"context"
	"fmt"
	"os"
	"time"

	"pa-agent/internal/domain/entity"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher reports files that finish appearing in a directory.
type DirWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
	// settle is how long a file must stay unchanged before it counts as done.
	settle time.Duration
}

func WatchDir(dir string) (*DirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &DirWatcher{dir: dir, watcher: w, settle: 300 * time.Millisecond}, nil
}

// WaitForFile blocks until a complete file is created or renamed into the
// directory, returning its path.
func (d *DirWatcher) WaitForFile(ctx context.Context) (string, error) {
	var (
		pending string
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return "", fmt.Errorf("watcher closed")
			}
			return "", fmt.Errorf("watch %s: %w", d.dir, err)

		case ev, ok := <-d.watcher.Events:
			if !ok {
				return "", fmt.Errorf("watcher closed")
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if entity.IsPartialDownload(ev.Name) {
				continue
			}
			if fi, err := os.Stat(ev.Name); err != nil || fi.IsDir() {
				continue
			}
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(d.settle)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(d.settle)
			}
			fire = timer.C

		case <-fire:
			if _, err := os.Stat(pending); err == nil {
				return pending, nil
			}
			fire = nil
		}
	}
}

func (d *DirWatcher) Close() error {
	return d.watcher.Close()
}
