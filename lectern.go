package lectern

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/aretw0/lectern/internal/platform"
	"github.com/aretw0/lectern/pkg/adapters/fs"
	"github.com/aretw0/lectern/pkg/bundle"
	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
	"github.com/aretw0/lectern/pkg/typed"
)

// Version is the release of the library, set at build time with
// -ldflags "-X github.com/aretw0/lectern.Version=...".
var Version = "dev"

// --- Types ---

// Document is a public alias for the stored document.
type Document = core.Document

// Service is a public alias for the document service.
type Service = core.Service

// Library is a public alias for the filesystem-backed store.
type Library = fs.Library

// Filter narrows List results.
type Filter = core.Filter

// Event is a change notification produced by Watch.
type Event = core.Event

// Report summarizes one import.
type Report = bundle.Report

// DocumentModel is a public alias for the typed document model.
type DocumentModel[T any] = typed.DocumentModel[T]

// TypedRepository is a public alias for the typed repository.
type TypedRepository[T any] = typed.Repository[T]

// TypedService is a public alias for the typed service.
type TypedService[T any] = typed.Service[T]

// Document kinds.
const (
	KindSlide = core.KindSlide
	KindSong  = core.KindSong
	KindBible = core.KindBible
)

// --- Configuration ---

// Option defines a functional option for configuring a library.
type Option = platform.Option

// WithLogger sets the logger for the library and the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithKind selects the kind of documents stored in the root.
func WithKind(kind string) Option {
	return platform.WithKind(kind)
}

// WithFormat selects the codec for new files ("json" or "yaml").
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithFs replaces the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return platform.WithFs(fsys)
}

// WithCodec registers an extra codec for an extension.
func WithCodec(ext string, c codec.Codec) Option {
	return platform.WithCodec(ext, c)
}

// WithMaxFileNameLength bounds derived file names, in bytes.
func WithMaxFileNameLength(n int) Option {
	return platform.WithMaxFileNameLength(n)
}

// WithMustExist ensures the root directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithImporters replaces the importers tried on import.
func WithImporters(importers ...core.Importer) Option {
	return platform.WithImporters(importers...)
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithEventBuffer allows specifying the size of the event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithWatcherErrorHandler registers a callback for watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithStore allows injecting a custom storage adapter.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// --- Factory ---

// New opens the library at path and returns a service over it.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// OpenLibrary opens the library at path without the service layer.
func OpenLibrary(path string, opts ...Option) (*fs.Library, error) {
	return platform.OpenLibrary(path, opts...)
}

// --- Typed Factories ---

// NewTypedRepository creates a type-safe wrapper around an existing store.
func NewTypedRepository[T any](store core.Store) *typed.Repository[T] {
	return typed.NewRepository[T](store)
}

// NewTypedService creates a type-safe wrapper around an existing service.
func NewTypedService[T any](svc *core.Service) *typed.Service[T] {
	return typed.NewService[T](svc)
}

// OpenTypedService simplifies creating a TypedService from a path.
func OpenTypedService[T any](path string, opts ...Option) (*typed.Service[T], error) {
	svc, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewService[T](svc), nil
}

// --- Operations ---

// Import loads the bundle at file into the library at root.
func Import(ctx context.Context, root, file string, opts ...Option) (*bundle.Report, error) {
	return platform.Import(ctx, root, file, opts...)
}

// Export writes the documents of root accepted by filter to an archive.
func Export(root, file string, filter func(*core.Document) bool, opts ...Option) (int, error) {
	return platform.Export(root, file, filter, opts...)
}

// FindRoot looks upwards from startDir for a library root marker.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
