// ABOUTME: Dataset snapshot shared by the MCP handlers
// ABOUTME: Reloads every collection when one of the JSONL files is written
package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/harper/pedagogy/internal/logging"
	"github.com/harper/pedagogy/internal/storage"
)

// DatasetSource hands out the current dataset
type DatasetSource interface {
	Dataset() *storage.Dataset
}

// Snapshot holds a loaded dataset and swaps it for a fresh one on reload
type Snapshot struct {
	paths  storage.Paths
	logger *zap.Logger

	mu      sync.RWMutex
	dataset *storage.Dataset

	watcher  *fsnotify.Watcher
	reloaded chan struct{}
	stop     chan struct{}
	done     chan struct{}
}

// NewSnapshot loads the dataset at paths
func NewSnapshot(paths storage.Paths, logger *zap.Logger) (*Snapshot, error) {
	s := &Snapshot{
		paths:    paths,
		logger:   logging.OrNop(logger),
		reloaded: make(chan struct{}, 1),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dataset returns the most recently loaded dataset
func (s *Snapshot) Dataset() *storage.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Reload reads every collection again. On failure the previous dataset stays.
func (s *Snapshot) Reload() error {
	ds, err := storage.OpenDataset(s.paths)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()

	select {
	case s.reloaded <- struct{}{}:
	default:
	}
	return nil
}

// Reloaded signals after each successful reload. Signals coalesce.
func (s *Snapshot) Reloaded() <-chan struct{} {
	return s.reloaded
}

// Watch starts reloading on writes to the dataset files. The directories
// are watched so files created later are picked up too.
func (s *Snapshot) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	names := make(map[string]bool, 3)
	dirs := make(map[string]bool, 3)
	for _, p := range []string{s.paths.Documents, s.paths.Dialogues, s.paths.DPO} {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return err
		}
		names[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	s.watcher = watcher
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.processEvents(ctx, names)
	return nil
}

func (s *Snapshot) processEvents(ctx context.Context, names map[string]bool) {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !names[name] {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("dataset reload failed", zap.String("file", name), zap.Error(err))
				continue
			}
			s.logger.Debug("dataset reloaded", zap.String("file", name))
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close stops watching. It is safe to call without Watch.
func (s *Snapshot) Close() error {
	if s.watcher == nil {
		return nil
	}
	select {
	case <-s.stop:
		return nil
	default:
		close(s.stop)
	}
	err := s.watcher.Close()
	<-s.done
	return err
}
