package fs

import (
	"strings"
	"sync"
)

// lockRegistry hands out one mutex per key. Mutexes are created lazily and
// kept for the lifetime of the registry, so two callers asking for the same
// key always contend on the same mutex.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex bound to key, creating it on first use.
func (r *lockRegistry) Get(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	return m
}

// Lock acquires the mutex bound to key and returns its release function.
func (r *lockRegistry) Lock(key string) func() {
	m := r.Get(key)
	m.Lock()
	return m.Unlock
}

// Len returns the number of keys seen so far.
func (r *lockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

func idKey(id string) string { return "id:" + id }

// fileKey folds case so names differing only in case share a lock on
// case-insensitive filesystems.
func fileKey(name string) string { return "file:" + strings.ToLower(name) }
