// Package configwatch monitors the enrich configuration file and
// notifies the caller when it changes, so threshold tuning does not
// require a restart.
package configwatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/globeandmail/enrich/pkg/log"
)

// DefaultDebounce is how long the watcher waits after a file change
// before notifying. Editors often emit several events per save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a single config file for writes and delivers change
// notifications on C. Notifications are coalesced: a burst of writes
// within the debounce window produces one notification.
type Watcher struct {
	mu sync.Mutex

	path     string
	debounce time.Duration
	logger   log.Logger

	C chan struct{}

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debTimer *time.Timer
}

// New creates a watcher for the config file at path. A non-positive
// debounce falls back to DefaultDebounce.
func New(path string, debounce time.Duration, logger log.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		logger:   logger,
		C:        make(chan struct{}, 1),
	}
}

// Start begins watching. It returns an error if the file's directory
// cannot be watched.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory rather than the file itself: many editors
	// replace the file on save, which would drop a file-level watch.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(watchCtx, fw)

	w.logger.Debug("config watcher started", log.String("path", w.path))
	return nil
}

// Stop terminates the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	if w.debTimer != nil {
		w.debTimer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()

	target := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleNotify()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) scheduleNotify() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debTimer != nil {
		w.debTimer.Stop()
	}
	w.debTimer = time.AfterFunc(w.debounce, func() {
		select {
		case w.C <- struct{}{}:
		default:
			// A notification is already pending.
		}
	})
}
