package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
)

// maxEntrySize bounds the decompressed size of a single archive entry.
const maxEntrySize = 64 << 20

var (
	zipLocalHeader = []byte("PK\x03\x04")
	zipEmptyEnd    = []byte("PK\x05\x06")
)

// DefaultImporters returns the native importers, archive first.
func DefaultImporters(codecs *codec.Registry) []core.Importer {
	return []core.Importer{
		NewArchiveImporter(codecs),
		NewDocumentImporter(codecs),
	}
}

// ArchiveImporter reads zip bundles produced by WriteArchive.
type ArchiveImporter struct {
	codecs *codec.Registry
}

// NewArchiveImporter creates an importer that decodes archive entries with
// the codec registered for their extension.
func NewArchiveImporter(codecs *codec.Registry) *ArchiveImporter {
	if codecs == nil {
		codecs = codec.DefaultRegistry()
	}
	return &ArchiveImporter{codecs: codecs}
}

func (a *ArchiveImporter) Name() string { return "archive" }

func (a *ArchiveImporter) Detect(data []byte) bool {
	return bytes.HasPrefix(data, zipLocalHeader) || bytes.HasPrefix(data, zipEmptyEnd)
}

// Decode decodes every entry independently. Entries that fail are reported
// in Skipped; entries without a registered extension are ignored.
func (a *ArchiveImporter) Decode(data []byte) (*core.Decoded, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &core.InvalidFormatError{Format: a.Name(), Err: err}
	}

	out := &core.Decoded{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		c, ok := a.codecs.ForExt(path.Ext(f.Name))
		if !ok {
			continue
		}

		doc, err := decodeEntry(f, c)
		if err != nil {
			out.Skipped = append(out.Skipped, &core.InvalidFormatError{Format: a.Name(), Entry: f.Name, Err: err})
			continue
		}
		out.Documents = append(out.Documents, doc)
	}
	return out, nil
}

func decodeEntry(f *zip.File, c codec.Codec) (*core.Document, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxEntrySize)
	}
	return c.Decode(data)
}

// DocumentImporter reads a single encoded document.
type DocumentImporter struct {
	codecs *codec.Registry
}

// NewDocumentImporter creates an importer for standalone document files.
func NewDocumentImporter(codecs *codec.Registry) *DocumentImporter {
	if codecs == nil {
		codecs = codec.DefaultRegistry()
	}
	return &DocumentImporter{codecs: codecs}
}

func (d *DocumentImporter) Name() string { return "document" }

func (d *DocumentImporter) Detect(data []byte) bool {
	return d.sniff(data) != nil
}

func (d *DocumentImporter) Decode(data []byte) (*core.Decoded, error) {
	c := d.sniff(data)
	if c == nil {
		return nil, &core.InvalidFormatError{Format: d.Name(), Err: fmt.Errorf("no codec recognizes the input")}
	}
	doc, err := c.Decode(data)
	if err != nil {
		return nil, &core.InvalidFormatError{Format: c.Name(), Err: err}
	}
	return &core.Decoded{Documents: []*core.Document{doc}}, nil
}

// sniff returns the first codec, in extension order, recognizing data.
func (d *DocumentImporter) sniff(data []byte) codec.Codec {
	for _, ext := range d.codecs.Extensions() {
		c, _ := d.codecs.ForExt(ext)
		if c.Sniff(data) {
			return c
		}
	}
	return nil
}

var _ core.Importer = (*ArchiveImporter)(nil)
var _ core.Importer = (*DocumentImporter)(nil)
