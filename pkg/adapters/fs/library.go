package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
	"github.com/aretw0/lectern/pkg/naming"
)

// Library implements core.Store on top of a flat directory: one document per
// regular file, indexed in memory by identifier.
type Library struct {
	Path   string
	fs     afero.Fs
	config Config
	codecs *codec.Registry
	ext    string
	index  *index
	locks  *lockRegistry
	logger *slog.Logger

	mu            sync.RWMutex
	watcherActive bool
	lastLoad      *time.Time
	skippedFiles  int
}

// Config holds the configuration for the filesystem library.
type Config struct {
	Path      string
	Kind      string // document kind stored in this root, e.g. "slide"
	Format    string // codec used for new files ("json" or "yaml")
	MustExist bool
	Fs        afero.Fs
	Codecs    *codec.Registry
	Naming    naming.Policy
	Logger    *slog.Logger
	// ErrorHandler receives background failures (watcher). Optional.
	ErrorHandler func(error)
	// Now overrides the clock used for timestamps. Optional.
	Now func() time.Time
}

// NewLibrary creates a new filesystem-backed library. Call Initialize before
// using it.
func NewLibrary(config Config) *Library {
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Codecs == nil {
		config.Codecs = codec.DefaultRegistry()
	}
	if config.Kind == "" {
		config.Kind = core.KindSlide
	}
	if config.Format == "" {
		config.Format = "json"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	path := filepath.Clean(config.Path)
	if _, ok := config.Fs.(*afero.OsFs); ok {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return &Library{
		Path:   path,
		fs:     config.Fs,
		config: config,
		codecs: config.Codecs,
		ext:    codec.ExtFor(config.Format),
		index:  newIndex(),
		locks:  newLockRegistry(),
		logger: config.Logger,
	}
}

// Kind returns the document kind stored in this library.
func (l *Library) Kind() string {
	return l.config.Kind
}

// Initialize prepares the root directory and loads the index.
func (l *Library) Initialize(ctx context.Context) error {
	if _, ok := l.codecs.ForExt(l.ext); !ok {
		return fmt.Errorf("no codec registered for format %q", l.config.Format)
	}

	if l.config.MustExist {
		info, err := l.fs.Stat(l.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("library path does not exist: %s", l.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat library path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("library path is not a directory: %s", l.Path)
		}
	} else {
		if err := l.fs.MkdirAll(l.Path, 0755); err != nil {
			return fmt.Errorf("failed to create library directory: %w", err)
		}
	}

	return l.load(ctx)
}

// load scans the root and populates the index. Files that cannot be decoded
// are logged and skipped.
func (l *Library) load(ctx context.Context) error {
	entries, err := afero.ReadDir(l.fs, l.Path)
	if err != nil {
		return fmt.Errorf("failed to list library: %w", err)
	}

	skipped := 0
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		fullPath := filepath.Join(l.Path, entry.Name())

		if isTempFile(entry.Name()) {
			if err := l.fs.Remove(fullPath); err != nil {
				l.logger.Warn("failed to remove stale temp file", "path", fullPath, "error", err)
			} else {
				l.logger.Debug("removed stale temp file", "path", fullPath)
			}
			continue
		}

		c, ok := l.codecs.ForPath(entry.Name())
		if !ok {
			continue
		}

		doc, err := l.readDocument(fullPath, c)
		if err != nil {
			l.logger.Warn("skipping unreadable document", "path", fullPath, "error", err)
			skipped++
			continue
		}
		if doc.Kind != l.config.Kind {
			l.logger.Warn("skipping document of another kind", "path", fullPath, "kind", doc.Kind)
			skipped++
			continue
		}
		if !l.index.Put(doc, true) {
			other, _ := l.index.Get(doc.ID)
			l.logger.Warn("skipping duplicate document id", "path", fullPath, "id", doc.ID, "kept", other.Path)
			skipped++
			continue
		}
	}

	now := l.now()
	l.mu.Lock()
	l.lastLoad = &now
	l.skippedFiles = skipped
	l.mu.Unlock()

	l.logger.Debug("library loaded", "path", l.Path, "documents", l.index.Len(), "skipped", skipped)
	return nil
}

// readDocument decodes the file at path. A document without kind belongs to
// this library.
func (l *Library) readDocument(path string, c codec.Codec) (*core.Document, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := c.Decode(data)
	if err != nil {
		var formatErr *core.FormatError
		var schemaErr *core.SchemaError
		switch {
		case errors.As(err, &formatErr):
			formatErr.Source = path
		case errors.As(err, &schemaErr):
			schemaErr.Source = path
		}
		return nil, err
	}

	if doc.Kind == "" {
		doc.Kind = l.config.Kind
	}
	doc.Path = path
	return doc, nil
}

// Get returns the indexed instance for id.
func (l *Library) Get(id string) (*core.Document, error) {
	doc, ok := l.index.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return doc, nil
}

// All returns the indexed instances ordered by name.
func (l *Library) All() []*core.Document {
	return l.index.All()
}

// Size returns the number of indexed documents.
func (l *Library) Size() int {
	return l.index.Len()
}

// Reload re-reads the backing file of an indexed document and replaces the
// indexed instance. Decoding failures are returned as is.
func (l *Library) Reload(ctx context.Context, id string) (*core.Document, error) {
	unlock := l.locks.Lock(idKey(id))
	defer unlock()

	current, ok := l.index.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	c, err := l.codecFor(current.Path)
	if err != nil {
		return nil, err
	}
	doc, err := l.readDocument(current.Path, c)
	if err != nil {
		return nil, err
	}
	if doc.ID != id {
		return nil, &core.FormatError{Source: current.Path, Reason: fmt.Sprintf("file now holds document %s", doc.ID)}
	}

	l.index.Put(doc, false)
	return doc, nil
}

// Save persists a document.
//
// Workflow:
//  1. Lock the document identifier.
//  2. New document: resolve its file name, lock it, fall back to the
//     identifier-derived name when the file already exists.
//  3. Indexed document: keep the current file when the name is unchanged;
//     otherwise lock the new name and move the file before writing.
//  4. Write atomically, then publish doc in the index.
//
// On failure doc's timestamps and path are restored and the index is left
// untouched.
func (l *Library) Save(ctx context.Context, doc *core.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document has no ID", core.ErrInvalidDocument)
	}
	if doc.Kind == "" {
		doc.Kind = l.config.Kind
	}
	if doc.Kind != l.config.Kind {
		return fmt.Errorf("%w: kind %q does not belong to a %s library", core.ErrInvalidDocument, doc.Kind, l.config.Kind)
	}

	unlock := l.locks.Lock(idKey(doc.ID))
	defer unlock()

	l.logger.Debug("saving document", "id", doc.ID, "name", doc.Name)

	prevCreated, prevModified, prevPath := doc.CreatedAt, doc.ModifiedAt, doc.Path
	now := l.now()
	doc.ModifiedAt = now
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	var err error
	if current, ok := l.index.Get(doc.ID); ok {
		err = l.saveExisting(doc, current)
	} else {
		err = l.saveNew(doc)
	}
	if err != nil {
		doc.CreatedAt, doc.ModifiedAt, doc.Path = prevCreated, prevModified, prevPath
		return err
	}
	return nil
}

func (l *Library) saveNew(doc *core.Document) error {
	name := l.config.Naming.Resolve(doc) + l.ext
	unlock := l.locks.Lock(fileKey(name))
	defer unlock()

	target := filepath.Join(l.Path, name)
	exists, err := afero.Exists(l.fs, target)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", target, err)
	}
	if exists {
		// The fallback namespace is derived from the identifier, which is
		// already locked.
		target = filepath.Join(l.Path, l.config.Naming.Fallback(doc)+l.ext)
		l.logger.Debug("file name taken, using fallback", "id", doc.ID, "name", name, "fallback", filepath.Base(target))
	}

	if err := l.writeDocument(doc, target); err != nil {
		return err
	}
	// Publish while the file lock is held so a stale Remove cannot see the
	// new file without an owner.
	doc.Path = target
	l.index.Put(doc, false)
	return nil
}

func (l *Library) saveExisting(doc, current *core.Document) error {
	currentPath := current.Path
	ext := filepath.Ext(currentPath)
	name := l.config.Naming.Resolve(doc) + ext
	desired := filepath.Join(l.Path, name)

	if desired == currentPath {
		return l.overwrite(doc, currentPath)
	}

	unlock := l.locks.Lock(fileKey(name))
	defer unlock()

	exists, err := afero.Exists(l.fs, desired)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", desired, err)
	}
	if exists {
		switch {
		case naming.IsFallback(currentPath):
			// The collision predates this save.
			return l.overwrite(doc, currentPath)
		case strings.EqualFold(desired, currentPath) && l.sameFile(desired, currentPath):
			// Case-only rename on a case-insensitive filesystem.
		default:
			return &core.NameConflictError{ID: doc.ID, Name: name}
		}
	}

	if err := l.fs.Rename(currentPath, desired); err != nil {
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(currentPath), err)
	}
	if err := l.writeDocument(doc, desired); err != nil {
		if rbErr := l.fs.Rename(desired, currentPath); rbErr != nil {
			l.logger.Error("failed to move document back after write failure", "id", doc.ID, "path", desired, "error", rbErr)
			return errors.Join(err, fmt.Errorf("document left at %s: %w", desired, rbErr))
		}
		return err
	}
	doc.Path = desired
	l.index.Put(doc, false)
	return nil
}

// sameFile reports whether both paths name one file, as they do for a
// case-only rename on a case-insensitive filesystem.
func (l *Library) sameFile(a, b string) bool {
	fa, err := l.fs.Stat(a)
	if err != nil {
		return false
	}
	fb, err := l.fs.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

func (l *Library) overwrite(doc *core.Document, path string) error {
	if err := l.writeDocument(doc, path); err != nil {
		return err
	}
	doc.Path = path
	l.index.Put(doc, false)
	return nil
}

// writeDocument encodes doc with the codec bound to path's extension and
// writes it atomically.
func (l *Library) writeDocument(doc *core.Document, path string) error {
	c, err := l.codecFor(path)
	if err != nil {
		return err
	}
	data, err := c.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := writeFileAtomic(l.fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (l *Library) codecFor(path string) (codec.Codec, error) {
	c, ok := l.codecs.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("no codec registered for %s", filepath.Base(path))
	}
	return c, nil
}

// Remove deletes the backing file of doc and forgets it. Removing a document
// that is already gone is not an error.
func (l *Library) Remove(ctx context.Context, doc *core.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document has no ID", core.ErrInvalidDocument)
	}

	unlock := l.locks.Lock(idKey(doc.ID))
	defer unlock()

	path := doc.Path
	if current, ok := l.index.Get(doc.ID); ok {
		path = current.Path
	} else if path != "" {
		// Stale handle. A save of another document may be publishing this
		// file, so check ownership under the file lock.
		unlockFile := l.locks.Lock(fileKey(filepath.Base(path)))
		defer unlockFile()
		if owner, taken := l.index.FindByPath(path); taken && owner != doc.ID {
			path = ""
		}
	}

	if path != "" {
		if err := l.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
	}

	l.index.Remove(doc.ID)
	l.logger.Debug("removed document", "id", doc.ID, "path", path)
	return nil
}

func (l *Library) now() time.Time {
	return l.config.Now().UTC()
}

var _ core.Store = (*Library)(nil)
var _ core.Watchable = (*Library)(nil)
