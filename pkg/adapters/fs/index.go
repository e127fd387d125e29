package fs

import (
	"sort"
	"sync"

	"github.com/aretw0/lectern/pkg/core"
)

// index holds the authoritative in-memory instance of every document,
// keyed by identifier.
type index struct {
	mu   sync.RWMutex
	docs map[string]*core.Document
}

func newIndex() *index {
	return &index{docs: make(map[string]*core.Document)}
}

// Get returns the indexed instance for id.
func (x *index) Get(id string) (*core.Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	d, ok := x.docs[id]
	return d, ok
}

// All returns the indexed instances ordered by name, then identifier.
func (x *index) All() []*core.Document {
	x.mu.RLock()
	out := make([]*core.Document, 0, len(x.docs))
	for _, d := range x.docs {
		out = append(out, d)
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of entries in the index.
func (x *index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Put stores doc under its identifier. It returns false, and keeps the
// existing entry, when add is set and the identifier is already taken.
func (x *index) Put(doc *core.Document, add bool) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.docs[doc.ID]; ok && add {
		return false
	}
	x.docs[doc.ID] = doc
	return true
}

// Remove deletes a single entry from the index.
func (x *index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
}

// FindByPath returns the identifier of the document backed by path.
func (x *index) FindByPath(path string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for id, d := range x.docs {
		if d.Path == path {
			return id, true
		}
	}
	return "", false
}
