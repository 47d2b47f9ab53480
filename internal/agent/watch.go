package agent

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/meridian-labs/climecat/pkg/builder"
	"github.com/meridian-labs/climecat/pkg/log"
)

// Watch keeps the experiment's datastore current: it verifies once up
// front, then re-runs the freshness check whenever files under the
// experiment directory change. Events are debounced so a burst of
// writes from a running model triggers one verification, not one per
// file. Blocks until ctx is cancelled.
func (a *Agent) Watch(ctx context.Context, family *builder.Family, experimentDir, catalogDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watchTree(watcher, experimentDir, family.Depth); err != nil {
		return err
	}

	if _, _, err := a.UseDatastore(ctx, family, experimentDir, catalogDir); err != nil {
		return err
	}

	var mu sync.Mutex
	var debounce *time.Timer
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(a.cfg.Debounce, func() {
			if _, _, err := a.UseDatastore(ctx, family, experimentDir, catalogDir); err != nil {
				a.logger.Error("re-verification failed", log.Err(err))
			}
		})
	}

	a.logger.Info("watching experiment directory",
		log.String("dir", experimentDir), log.Duration("debounce", a.cfg.Debounce))

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			mu.Unlock()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New output directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watcher error", log.Err(err))
		}
	}
}

// watchTree registers root and its subdirectories down to the
// family's crawl depth. fsnotify watches are not recursive.
func watchTree(watcher *fsnotify.Watcher, root string, depth int) error {
	rootDepth := sepCount(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if depth > 0 && sepCount(path)-rootDepth > depth {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
}

func sepCount(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}
