package fs

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/aretw0/lectern/pkg/bundle"
	"github.com/aretw0/lectern/pkg/core"
)

// ImportBundle decodes data with imp and saves every decoded document on its
// own. A failing document is logged and reported in ImportResult.Skipped;
// it never aborts the others. Decode errors abort the whole bundle.
//
// Imported documents are treated as new: their creation time is reset and a
// document whose identifier is already indexed gets a fresh one.
func (l *Library) ImportBundle(ctx context.Context, data []byte, imp core.Importer) (*core.ImportResult, error) {
	decoded, err := imp.Decode(data)
	if err != nil {
		return nil, err
	}

	var skipped *multierror.Error
	for _, e := range decoded.Skipped {
		l.logger.Warn("skipping bundle entry", "importer", imp.Name(), "error", e)
		skipped = multierror.Append(skipped, e)
	}

	result := &core.ImportResult{}
	now := l.now()
	for _, doc := range decoded.Documents {
		if doc == nil {
			continue
		}
		if _, taken := l.index.Get(doc.ID); doc.ID == "" || taken {
			doc.ID = core.NewID()
		}
		if doc.Kind == "" {
			doc.Kind = l.config.Kind
		}
		doc.CreatedAt = now
		doc.Path = ""

		if err := l.Save(ctx, doc); err != nil {
			l.logger.Error("failed to import document", "id", doc.ID, "name", doc.Name, "error", err)
			skipped = multierror.Append(skipped, fmt.Errorf("failed to save %q: %w", doc.Name, err))
			continue
		}
		result.Saved = append(result.Saved, doc)
	}

	result.Skipped = skipped.ErrorOrNil()
	l.logger.Debug("bundle imported", "importer", imp.Name(), "saved", len(result.Saved))
	return result, nil
}

// ExportBundle writes docs as a zip archive to w. It reads only the given
// instances and takes no locks.
func (l *Library) ExportBundle(w io.Writer, docs []*core.Document) error {
	c, err := l.codecFor(l.ext)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	if err := bundle.WriteArchive(zw, core.ZipDir(l.config.Kind), docs, c, l.ext, l.config.Naming); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// ExportFile writes docs as a zip archive at path, atomically.
func (l *Library) ExportFile(path string, docs []*core.Document) error {
	var buf bytes.Buffer
	if err := l.ExportBundle(&buf, docs); err != nil {
		return err
	}
	if err := writeFileAtomic(l.fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}
