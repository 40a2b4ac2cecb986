package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// OnChange registers a callback run after the file is reloaded by Watch.
func (s *Service) OnChange(cb func(*Config)) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.onChange = append(s.onChange, cb)
}

// Watch reloads the configuration whenever its file is written and runs
// the OnChange callbacks. It blocks until ctx is done. Reload errors go to
// errFn (may be nil) and keep the previous configuration.
func (s *Service) Watch(ctx context.Context, errFn func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	report := func(err error) {
		if errFn != nil {
			errFn(err)
		}
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := s.reload(); err != nil {
					report(err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			report(err)
		}
	}
}

func (s *Service) reload() error {
	cfg, err := decodeFile(s.filePath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()

	s.listenerMu.Lock()
	callbacks := append(([]func(*Config))(nil), s.onChange...)
	s.listenerMu.Unlock()

	for _, cb := range callbacks {
		c := *cfg
		cb(&c)
	}
	return nil
}
