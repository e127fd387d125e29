package platform

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
)

// options holds the internal configuration for a library.
type options struct {
	store         core.Store
	logger        *slog.Logger
	kind          string
	format        string
	fs            afero.Fs
	codecs        *codec.Registry
	maxNameLength int
	mustExist     bool
	importers     []core.Importer
	now           func() time.Time
	eventBuffer   int
	errorHandler  func(error)
}

// Option defines a functional option for configuring a library.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		kind:   core.KindSlide,
		format: "json",
	}
}

func apply(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the library and the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKind selects the document kind stored in the root (slide, song, bible).
func WithKind(kind string) Option {
	return func(o *options) {
		o.kind = kind
	}
}

// WithFormat selects the codec used for new files ("json" or "yaml").
// Existing files keep their format.
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithFs replaces the OS filesystem (e.g. afero.NewMemMapFs() in tests).
// Watching is only available on the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithCodec registers an extra codec for an extension.
func WithCodec(ext string, c codec.Codec) Option {
	return func(o *options) {
		if o.codecs == nil {
			o.codecs = codec.DefaultRegistry()
		}
		o.codecs.Register(ext, c)
	}
}

// WithMaxFileNameLength bounds derived file names, in bytes.
// Zero means naming.DefaultMaxLength.
func WithMaxFileNameLength(n int) Option {
	return func(o *options) {
		o.maxNameLength = n
	}
}

// WithMustExist ensures the root directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithImporters replaces the importers tried by the import pipeline, in order.
func WithImporters(importers ...core.Importer) Option {
	return func(o *options) {
		o.importers = importers
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithEventBuffer allows specifying the size of the event buffer used by
// Service.Watch. Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithWatcherErrorHandler registers a callback for errors occurring during
// the Watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithStore injects a custom store (e.g. a mock). The filesystem library is
// then skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}
