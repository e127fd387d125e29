package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// LibraryState exposes internal state for observability.
type LibraryState struct {
	Path          string     `json:"path"`
	Kind          string     `json:"kind"`
	Format        string     `json:"format"`
	Documents     int        `json:"documents"`
	Locks         int        `json:"locks"`
	Codecs        []string   `json:"codecs"`
	MaxNameLength int        `json:"max_name_length"`
	WatcherActive bool       `json:"watcher_active"`
	SkippedFiles  int        `json:"skipped_files"`
	LastLoad      *time.Time `json:"last_load,omitempty"`
}

// State implements introspection.Introspectable.
func (l *Library) State() any {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return LibraryState{
		Path:          l.Path,
		Kind:          l.config.Kind,
		Format:        l.config.Format,
		Documents:     l.index.Len(),
		Locks:         l.locks.Len(),
		Codecs:        l.codecs.Extensions(),
		MaxNameLength: l.config.Naming.MaxLength,
		WatcherActive: l.watcherActive,
		SkippedFiles:  l.skippedFiles,
		LastLoad:      l.lastLoad,
	}
}

// ComponentType implements introspection.Component.
func (l *Library) ComponentType() string {
	return "library"
}

var _ introspection.Introspectable = (*Library)(nil)
var _ introspection.Component = (*Library)(nil)

func (l *Library) setWatcherActive(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watcherActive = active
}
