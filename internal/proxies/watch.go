package proxies

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/crashlog"
)

const (
	inboxExt    = ".txt"
	importedExt = ".imported"
)

// Watch imports every *.txt file dropped into dir, renaming each to
// *.imported once processed. Files already present are imported first.
// Watch blocks until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.log.Info("watching import inbox", "dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read inbox dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && isInboxFile(e.Name()) {
			s.importInboxFile(ctx, filepath.Join(dir, e.Name()))
		}
	}

	// Editors and copies produce bursts of write events; each path is
	// imported once the burst settles.
	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
		work   sync.Mutex
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isInboxFile(event.Name) || !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Reset(s.debounce)
			} else {
				timers[path] = time.AfterFunc(s.debounce, func() {
					mu.Lock()
					delete(timers, path)
					mu.Unlock()

					work.Lock()
					defer work.Unlock()
					if ctx.Err() == nil {
						s.importInboxFile(ctx, path)
					}
				})
			}
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("inbox watch error", "error", err)
		}
	}
}

func (s *Service) importInboxFile(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if _, err := s.ImportFile(ctx, path); err != nil {
		crashlog.LogError("proxies", fmt.Errorf("inbox import: %w", err), map[string]string{"file": path})
		return
	}
	done := strings.TrimSuffix(path, filepath.Ext(path)) + importedExt
	if err := os.Rename(path, done); err != nil {
		crashlog.LogWarn("proxies", fmt.Sprintf("imported file not renamed, it will be imported again: %v", err), map[string]string{"file": path})
	}
}

func isInboxFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), inboxExt)
}
