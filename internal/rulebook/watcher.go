package rulebook

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Store holds the active rulebook and swaps it atomically on reload.
// Reviews read it once at their start, so one review uses one rulebook.
type Store struct {
	current atomic.Pointer[Rulebook]
	path    string
	logger  *slog.Logger

	mu       sync.Mutex
	onChange []func(*Rulebook)
}

// NewStore loads path (or the defaults when empty) into a Store.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	rb, err := Load(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}
	s.current.Store(rb)
	return s, nil
}

// Current returns the active rulebook. It must not be modified.
func (s *Store) Current() *Rulebook {
	return s.current.Load()
}

// OnChange registers fn to run after every successful reload.
func (s *Store) OnChange(fn func(*Rulebook)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Reload re-reads the file. An invalid file leaves the active rulebook in
// place and returns the error.
func (s *Store) Reload() error {
	rb, err := Load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(rb)
	s.mu.Lock()
	subs := append([]func(*Rulebook){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(rb)
	}
	return nil
}

// Watch reloads the rulebook whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file on save
// are handled. Without a path Watch returns immediately.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create rulebook watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch rulebook directory: %w", err)
	}
	target := filepath.Clean(s.path)

	var timer *time.Timer
	trigger := func() {
		if err := s.Reload(); err != nil {
			s.logger.Error("rulebook reload failed, keeping previous rules", "path", s.path, "error", err)
			return
		}
		s.logger.Info("rulebook reloaded", "path", s.path)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(defaultDebounce, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("rulebook watcher error", "error", err)
		}
	}
}
