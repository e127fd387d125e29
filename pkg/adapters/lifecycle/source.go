// Package lifecycle exposes a library change feed as an aretw0/lifecycle
// source.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/lectern/pkg/core"
)

// Watcher is implemented by core.Service and by stores that can watch
// their root.
type Watcher interface {
	Watch(ctx context.Context, pattern string) (<-chan core.Event, error)
}

// ErrStarted is returned when a source is started twice.
var ErrStarted = errors.New("watch source already started")

// Source opens a watch subscription on Start and re-emits the events of the
// selected types. Its Events channel closes when the subscription ends.
type Source struct {
	watcher Watcher
	pattern string
	types   map[core.EventType]bool
	started atomic.Bool
	out     chan lifecycle.Event
}

var _ lifecycle.Source = (*Source)(nil)

// NewSource creates a source for the files of w matching pattern. With no
// types every event is forwarded.
func NewSource(w Watcher, pattern string, types ...core.EventType) *Source {
	s := &Source{
		watcher: w,
		pattern: pattern,
		out:     make(chan lifecycle.Event),
	}
	if len(types) > 0 {
		s.types = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	return s
}

func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start subscribes and forwards until the subscription closes or ctx is
// done. A failed subscription is returned and leaves Events open.
func (s *Source) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	events, err := s.watcher.Watch(ctx, s.pattern)
	if err != nil {
		s.started.Store(false)
		return fmt.Errorf("failed to start watch source: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				if s.types != nil && !s.types[e.Type] {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

// ParseEventTypes maps names such as "create" or "DELETE" to event types.
func ParseEventTypes(names []string) ([]core.EventType, error) {
	out := make([]core.EventType, 0, len(names))
	for _, name := range names {
		switch t := core.EventType(strings.ToUpper(strings.TrimSpace(name))); t {
		case core.EventCreate, core.EventModify, core.EventDelete:
			out = append(out, t)
		default:
			return nil, fmt.Errorf("unknown event type %q", name)
		}
	}
	return out, nil
}
