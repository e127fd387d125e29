package fs

import (
	"sync"
	"time"

	"github.com/aretw0/lectern/pkg/core"
)

// debouncer coalesces bursts of events on the same path. The last event of a
// burst wins.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*time.Timer
	latest  map[string]core.Event
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*time.Timer),
		latest:  make(map[string]core.Event),
	}
}

// add schedules emit for e, replacing any pending event on the same path.
func (d *debouncer) add(e core.Event, emit func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.latest[e.Path] = e
	if t, ok := d.pending[e.Path]; ok {
		if t.Stop() {
			t.Reset(d.delay)
			return
		}
		// Timer already fired; its callback owns the wg slot.
	}

	d.wg.Add(1)
	d.pending[e.Path] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		ev, ok := d.latest[e.Path]
		delete(d.latest, e.Path)
		delete(d.pending, e.Path)
		stopped := d.stopped
		d.mu.Unlock()
		if ok && !stopped {
			emit(ev)
		}
	})
}

// stopAndWait drops pending events and waits for in-flight callbacks.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for path, t := range d.pending {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.pending, path)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
