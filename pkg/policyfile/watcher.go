package policyfile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/polisai/polis-guard/pkg/policy"
)

// SwapFunc receives the freshly built set after a successful reload.
type SwapFunc func(*policy.Set[map[string]any])

// Watcher rebuilds a bundle file whenever it changes on disk and hands the
// new set to a swap callback. A failed rebuild is logged and the previous set
// stays in effect.
type Watcher struct {
	path         string
	watcher      *fsnotify.Watcher
	onSwap       SwapFunc
	logger       zerolog.Logger
	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	debounceTime time.Duration
}

// NewWatcher creates a watcher for the bundle at path.
func NewWatcher(path string, onSwap SwapFunc, logger zerolog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:    path,
		watcher: fsWatcher,
		onSwap:  onSwap,
		logger:  logger,
		stopCh:  make(chan struct{}),
		// Editors often write bundles as several rapid events; coalesce them.
		debounceTime: 250 * time.Millisecond,
	}, nil
}

// Start begins watching the bundle file for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory rather than the file: editors replace files by
	// writing a temp file and renaming it over the original.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	w.logger.Info().Str("bundle", w.path).Msg("policy bundle watcher started")

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	var debounce *time.Timer
	var pending <-chan time.Time

	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isBundleEvent(event) {
				continue
			}
			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("policy bundle event")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.debounceTime)
			pending = debounce.C

		case <-pending:
			pending = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("policy bundle watch error")

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) isBundleEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) reload(ctx context.Context) {
	set, err := Load(ctx, w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("bundle", w.path).Msg("policy bundle reload failed, keeping previous set")
		return
	}

	w.logger.Info().Str("bundle", w.path).Int("policies", set.Len()).Msg("policy bundle reloaded")
	w.onSwap(set)
}
