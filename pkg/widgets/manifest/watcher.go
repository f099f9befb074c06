// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the delay used to coalesce bursts of file events.
const DefaultDebounce = 250 * time.Millisecond

// ReloadCallback is called after a successful reload with the new manifest.
type ReloadCallback func(m *Manifest)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Debounce time.Duration
	Logger   *zap.Logger
	OnReload ReloadCallback
}

// Watcher keeps a manifest file loaded and reloads it when it changes.
// A reload that fails to parse keeps the previous manifest.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	config   WatcherConfig
	logger   *zap.Logger
	current  atomic.Pointer[Manifest]
	reloads  atomic.Int64
	timer    *time.Timer
	timerMu  sync.Mutex
	reloadMu sync.Mutex
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewWatcher loads the manifest at path and prepares to watch it.
func NewWatcher(path string, config WatcherConfig) (*Watcher, error) {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	m, err := LoadFile(abs)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		path:    abs,
		watcher: fw,
		config:  config,
		logger:  config.Logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	w.current.Store(m)
	return w, nil
}

// Current returns the most recently loaded manifest.
func (w *Watcher) Current() *Manifest {
	return w.current.Load()
}

// Reloads returns the number of successful reloads since start.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// Start begins watching. The parent directory is watched rather than the
// file itself so that editors replacing the file via rename are seen.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch manifest directory: %w", err)
	}
	w.started.Store(true)

	w.logger.Info("Started manifest watcher",
		zap.String("path", w.path),
		zap.Duration("debounce", w.config.Debounce))

	go w.watchLoop(ctx)
	return nil
}

// Stop stops watching and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
		if w.started.Load() {
			<-w.doneCh
		}

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()

		// Wait out a reload that already fired.
		w.reloadMu.Lock()
		w.reloadMu.Unlock()
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.debounce()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Manifest watcher error", zap.Error(err))

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) debounce() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, w.reload)
}

func (w *Watcher) reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	select {
	case <-w.stopCh:
		return
	default:
	}

	m, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Manifest reload failed, keeping previous manifest",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}

	w.current.Store(m)
	w.reloads.Add(1)
	w.logger.Info("Manifest reloaded",
		zap.String("path", w.path),
		zap.Int("routes", m.Len()))

	if w.config.OnReload != nil {
		w.config.OnReload(m)
	}
}
