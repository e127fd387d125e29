package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/lectern/pkg/bundle"
	"github.com/aretw0/lectern/pkg/core"
)

// Import opens the library at root and imports the bundle at file.
func Import(ctx context.Context, root, file string, opts ...Option) (*bundle.Report, error) {
	lib, err := OpenLibrary(root, opts...)
	if err != nil {
		return nil, err
	}
	return NewPipeline(lib, opts...).ImportFile(ctx, file)
}

// Export opens the library at root and writes the documents accepted by
// filter (all when nil) to an archive at file. It returns the number of
// exported documents.
func Export(root, file string, filter func(*core.Document) bool, opts ...Option) (int, error) {
	lib, err := OpenLibrary(root, opts...)
	if err != nil {
		return 0, err
	}

	var docs []*core.Document
	for _, d := range lib.All() {
		if filter == nil || filter(d) {
			docs = append(docs, d)
		}
	}
	if err := lib.ExportFile(file, docs); err != nil {
		return 0, fmt.Errorf("failed to export %s: %w", root, err)
	}
	return len(docs), nil
}
