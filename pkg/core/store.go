package core

import (
	"context"
	"io"
)

// Store defines the contract of a document library.
// Adhering to this interface keeps the service and the import pipeline
// independent of the storage mechanism.
type Store interface {
	// Save persists a document: creates it, overwrites it in place or renames
	// its backing file when the name changed.
	Save(ctx context.Context, doc *Document) error

	// Remove deletes the backing file and forgets the document. Removing an
	// unknown document is not an error.
	Remove(ctx context.Context, doc *Document) error

	// Get returns the indexed instance for id or ErrNotFound.
	Get(id string) (*Document, error)

	// All returns the indexed instances. They are live references.
	All() []*Document

	// Size returns the number of indexed documents.
	Size() int

	// Tag mutations operate on the indexed instance of doc.ID. They report
	// false with a nil error when nothing changed or the document is gone.
	AddTag(ctx context.Context, doc *Document, tag string) (bool, error)
	AddTags(ctx context.Context, doc *Document, tags ...string) (bool, error)
	SetTags(ctx context.Context, doc *Document, tags ...string) (bool, error)
	RemoveTag(ctx context.Context, doc *Document, tag string) (bool, error)
	RemoveTags(ctx context.Context, doc *Document, tags ...string) (bool, error)

	// ImportBundle decodes data with imp and saves every decoded document
	// independently.
	ImportBundle(ctx context.Context, data []byte, imp Importer) (*ImportResult, error)

	// ExportBundle writes docs as an archive to w.
	ExportBundle(w io.Writer, docs []*Document) error
}

// Watchable defines an interface for stores that can report changes of their
// backing storage.
type Watchable interface {
	// Watch streams changes whose file name matches a doublestar pattern.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Importer decodes a foreign or native bundle into in-memory documents.
type Importer interface {
	// Name identifies the format handled by the importer.
	Name() string

	// Detect inspects the bundle signature.
	Detect(data []byte) bool

	// Decode returns the decoded documents. A structurally malformed bundle
	// yields an *InvalidFormatError; malformed entries are reported in
	// Decoded.Skipped instead.
	Decode(data []byte) (*Decoded, error)
}

// Decoded is the output of an Importer.
type Decoded struct {
	Documents []*Document
	Skipped   []error
}

// ImportResult is the outcome of inserting a decoded bundle.
type ImportResult struct {
	// Saved holds the documents that were decoded and saved.
	Saved []*Document
	// Skipped aggregates entry decode failures and save failures.
	// It is nil when nothing was dropped.
	Skipped error
}
