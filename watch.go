package courseconf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events (a git checkout
// touches many files) into a single invalidation.
const watchDebounce = 100 * time.Millisecond

// Watch monitors the courses root for changes, drops the cache when
// anything under it changes, and emits a ChangeEvent per coalesced
// burst. Returns the event channel, an error channel, and a setup
// error. Watching is advisory: mtime freshness checks on access remain
// the source of truth, so a missed event costs at most a slightly
// stale read until the next access.
//
// The watcher covers the root and each course directory present when
// Watch is called; course directories created later are added as they
// appear. Both channels close when ctx is cancelled.
func (c *Cache) Watch(ctx context.Context) (<-chan ChangeEvent, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, wrapConfigError(err, "starting courses watcher")
	}
	if err := watcher.Add(c.root); err != nil {
		watcher.Close()
		return nil, nil, wrapConfigError(err, "watching %q", c.root)
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		watcher.Close()
		return nil, nil, wrapConfigError(err, "listing %q", c.root)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(c.root, entry.Name())); err != nil {
				c.logger.Warn("cannot watch course directory", "dir", entry.Name(), "error", err)
			}
		}
	}

	eventCh := make(chan ChangeEvent)
	errorCh := make(chan error)
	go c.watchLoop(ctx, watcher, eventCh, errorCh)
	return eventCh, errorCh, nil
}

// watchLoop consumes fsnotify events until the context ends,
// debouncing them into cache invalidations. The channels close only
// after any fired debounce callback has finished: a callback may still
// be invalidating (or blocked on the cache lock) when the context is
// cancelled, and it must not send on a closed channel.
func (c *Cache) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, eventCh chan<- ChangeEvent, errorCh chan<- error) {
	defer close(eventCh)
	defer close(errorCh)
	defer watcher.Close()

	var pending sync.WaitGroup
	defer pending.Wait()

	var debounce *time.Timer
	stopDebounce := func() {
		// Stop reports true only when the timer had not fired, so the
		// callback will never run and its pending slot is released here.
		if debounce != nil && debounce.Stop() {
			pending.Done()
		}
	}
	defer stopDebounce()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						c.logger.Warn("cannot watch course directory", "dir", event.Name, "error", err)
					}
				}
			}

			cause := fmt.Sprintf("%s:%s", opName(event.Op), event.Name)
			stopDebounce()
			pending.Add(1)
			debounce = time.AfterFunc(watchDebounce, func() {
				defer pending.Done()
				c.Invalidate()
				select {
				case eventCh <- ChangeEvent{At: c.clock.Now(), Cause: cause}:
				case <-ctx.Done():
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			select {
			case errorCh <- wrapConfigError(err, "courses watcher"):
			case <-ctx.Done():
				return
			}
		}
	}
}

// opName renders the dominant fsnotify operation for event causes.
func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "change"
	}
}
