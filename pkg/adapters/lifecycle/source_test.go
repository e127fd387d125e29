package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lectern/pkg/adapters/lifecycle"
	"github.com/aretw0/lectern/pkg/core"
)

// feed is a Watcher backed by a channel the test controls.
type feed struct {
	events  chan core.Event
	err     error
	pattern string
}

func (f *feed) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	f.pattern = pattern
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func TestSource(t *testing.T) {
	t.Run("Forwards Selected Types", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		upstream := &feed{events: make(chan core.Event, 2)}
		src := lifecycle.NewSource(upstream, "*.json", core.EventModify)
		require.NoError(t, src.Start(ctx))
		assert.Equal(t, "*.json", upstream.pattern)

		upstream.events <- core.Event{Type: core.EventCreate, Path: "/lib/b.json"}
		upstream.events <- core.Event{Type: core.EventModify, ID: "abc", Path: "/lib/a.json"}

		select {
		case e := <-src.Events():
			assert.Equal(t, "MODIFY /lib/a.json (abc)", e.String())
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for bridged event")
		}

		close(upstream.events)
		select {
		case _, ok := <-src.Events():
			assert.False(t, ok, "output closes with the upstream feed")
		case <-time.After(time.Second):
			t.Fatal("output was not closed")
		}
	})

	t.Run("Start Twice", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		src := lifecycle.NewSource(&feed{events: make(chan core.Event)}, "")
		require.NoError(t, src.Start(ctx))
		assert.ErrorIs(t, src.Start(ctx), lifecycle.ErrStarted)
	})

	t.Run("Watch Failure", func(t *testing.T) {
		src := lifecycle.NewSource(&feed{err: core.ErrWatchUnsupported}, "")
		err := src.Start(context.Background())
		assert.True(t, errors.Is(err, core.ErrWatchUnsupported))
	})
}

func TestParseEventTypes(t *testing.T) {
	types, err := lifecycle.ParseEventTypes([]string{"create", " Delete "})
	require.NoError(t, err)
	assert.Equal(t, []core.EventType{core.EventCreate, core.EventDelete}, types)

	_, err = lifecycle.ParseEventTypes([]string{"rename"})
	assert.Error(t, err)
}
