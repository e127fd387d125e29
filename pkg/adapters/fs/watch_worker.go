package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/aretw0/lectern/pkg/core"
)

const debounceDelay = 50 * time.Millisecond

// Watch streams changes of the library root whose file name matches pattern
// (doublestar syntax, "" or "*" for everything). The channel is closed when
// ctx is done. Only libraries backed by the OS filesystem can be watched.
func (l *Library) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if _, ok := l.fs.(*afero.OsFs); !ok {
		return nil, core.ErrWatchUnsupported
	}
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(l.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.Path, err)
	}

	events := make(chan core.Event)
	w := &watchWorker{
		lib:       l,
		pattern:   pattern,
		events:    events,
		watcher:   watcher,
		debouncer: newDebouncer(debounceDelay),
	}
	l.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if l.config.ErrorHandler != nil {
			l.config.ErrorHandler(fmt.Errorf("watcher failed: %w", err))
		} else {
			l.logger.Error("watcher failed", "error", err)
		}
	}))
	return events, nil
}

type watchWorker struct {
	lib       *Library
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
}

// run is the main event loop. It owns the events channel and closes it on
// exit, after the debouncer has drained.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.lib.logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
		w.debouncer.stopAndWait(5 * time.Second)
		close(w.events)
		w.lib.setWatcherActive(false)
	}()
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}

// processFilesystemEvent filters, maps and debounces one raw event.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.lib.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if w.shouldIgnore(event) {
		return false
	}
	eType := mapEventType(event)
	if eType == "" {
		return false
	}

	path := filepath.Clean(event.Name)
	id, _ := w.lib.index.FindByPath(path)
	w.sendEvent(ctx, core.Event{
		Type:      eType,
		ID:        id,
		Path:      path,
		Timestamp: time.Now().Unix(),
	})
	return true
}

func (w *watchWorker) shouldIgnore(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if isTempFile(base) {
		return true
	}
	if _, ok := w.lib.codecs.ForPath(base); !ok {
		return true
	}
	match, err := doublestar.Match(w.pattern, base)
	return err != nil || !match
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// sendEvent enqueues an event via the debouncer.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			// The channel may close while a slow consumer keeps us here.
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) handleWatcherError(err error) {
	w.lib.logger.Error("fsnotify error", "error", err)
	if w.lib.config.ErrorHandler != nil {
		w.lib.config.ErrorHandler(err)
	}
}
