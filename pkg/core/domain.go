// Package core holds the domain of the document library: the Document record,
// its tag set, the error taxonomy and the ports implemented by storage adapters.
package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document kinds managed by a library instance.
const (
	KindSlide = "slide"
	KindSong  = "song"
	KindBible = "bible"
)

// Document is the persisted unit of the library.
//
// The store owns the in-memory instance it indexes. Callers that want to
// change a document without affecting the indexed copy should work on a Clone.
type Document struct {
	ID         string
	Kind       string
	Name       string
	Path       string // absolute location of the backing file; set by the store
	Tags       Tags
	CreatedAt  time.Time
	ModifiedAt time.Time
	Content    string // opaque payload, round-tripped verbatim
}

// NewID returns a fresh document identifier.
func NewID() string {
	return uuid.NewString()
}

// NewDocument creates an unsaved document with a new identifier.
func NewDocument(kind, name string) *Document {
	return &Document{
		ID:   NewID(),
		Kind: kind,
		Name: name,
		Tags: Tags{},
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = d.Tags.Clone()
	return &c
}

// String implements fmt.Stringer.
func (d *Document) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.ID)
}

// ZipDir returns the archive directory used for documents of the given kind
// when they are embedded in a bundle (e.g. "slides").
func ZipDir(kind string) string {
	if kind == "" {
		kind = KindSlide
	}
	return kind + "s"
}

// Tags is an unordered set of labels.
type Tags map[string]struct{}

// NewTags builds a tag set from the given labels.
func NewTags(labels ...string) Tags {
	t := Tags{}
	t.Add(labels...)
	return t
}

func normalizeTag(label string) string {
	return strings.TrimSpace(label)
}

// Add inserts labels and reports whether the set changed.
func (t *Tags) Add(labels ...string) bool {
	if *t == nil {
		*t = Tags{}
	}
	changed := false
	for _, l := range labels {
		l = normalizeTag(l)
		if l == "" {
			continue
		}
		if _, ok := (*t)[l]; !ok {
			(*t)[l] = struct{}{}
			changed = true
		}
	}
	return changed
}

// Remove deletes labels and reports whether the set changed.
func (t *Tags) Remove(labels ...string) bool {
	changed := false
	for _, l := range labels {
		l = normalizeTag(l)
		if _, ok := (*t)[l]; ok {
			delete(*t, l)
			changed = true
		}
	}
	return changed
}

// Set replaces the content of the set and reports whether it changed.
func (t *Tags) Set(labels ...string) bool {
	next := NewTags(labels...)
	if t.Equal(next) {
		return false
	}
	*t = next
	return true
}

// Has reports whether label is in the set.
func (t Tags) Has(label string) bool {
	_, ok := t[normalizeTag(label)]
	return ok
}

// Equal reports whether both sets hold the same labels.
func (t Tags) Equal(other Tags) bool {
	if len(t) != len(other) {
		return false
	}
	for l := range t {
		if _, ok := other[l]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a copy of the set. The copy of a nil set is empty, not nil.
func (t Tags) Clone() Tags {
	c := make(Tags, len(t))
	for l := range t {
		c[l] = struct{}{}
	}
	return c
}

// Sorted returns the labels in lexical order.
func (t Tags) Sorted() []string {
	out := make([]string, 0, len(t))
	for l := range t {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// EventType represents the type of change observed in a library root.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the library root.
type Event struct {
	Type      EventType
	ID        string // empty when the file is not (or no longer) indexed
	Path      string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s", e.Type, e.Path)
	}
	return fmt.Sprintf("%s %s (%s)", e.Type, e.Path, e.ID)
}
