package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/lectern/pkg/adapters/fs"
	"github.com/aretw0/lectern/pkg/bundle"
	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
	"github.com/aretw0/lectern/pkg/naming"
)

// New opens the library at path and wraps it in a service.
//
//	svc, err := lectern.New("./slides", lectern.WithKind("slide"))
func New(path string, opts ...Option) (*core.Service, error) {
	o := apply(opts)

	store := o.store
	if store == nil {
		lib, err := openLibrary(path, o)
		if err != nil {
			return nil, err
		}
		store = lib
	}

	service := core.NewService(store, o.kind, o.logger)
	if o.eventBuffer > 0 {
		service.SetEventBuffer(o.eventBuffer)
	}
	return service, nil
}

// OpenLibrary creates and loads the filesystem library at path.
func OpenLibrary(path string, opts ...Option) (*fs.Library, error) {
	return openLibrary(path, apply(opts))
}

func openLibrary(path string, o *options) (*fs.Library, error) {
	if path == "" {
		return nil, fmt.Errorf("library path is required")
	}

	lib := fs.NewLibrary(fs.Config{
		Path:         path,
		Kind:         o.kind,
		Format:       o.format,
		MustExist:    o.mustExist,
		Fs:           o.fs,
		Codecs:       o.codecs,
		Naming:       naming.Policy{MaxLength: o.maxNameLength},
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
		Now:          o.now,
	})
	if err := lib.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return lib, nil
}

// NewPipeline builds the import pipeline for store with the configured
// importers (archive and single document by default).
func NewPipeline(store core.Store, opts ...Option) *bundle.Pipeline {
	o := apply(opts)
	importers := o.importers
	if len(importers) == 0 {
		codecs := o.codecs
		if codecs == nil {
			codecs = codec.DefaultRegistry()
		}
		importers = bundle.DefaultImporters(codecs)
	}

	p := bundle.NewPipeline(store, importers, o.logger)
	if o.fs != nil {
		p.Fs = o.fs
	}
	return p
}
