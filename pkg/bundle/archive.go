// Package bundle moves documents in and out of a library as archives.
package bundle

import (
	"archive/zip"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
	"github.com/aretw0/lectern/pkg/naming"
)

// WriteArchive encodes docs into zw, one entry per document under dir.
// Entry names are derived with policy and never collide inside the archive.
// The caller closes zw.
func WriteArchive(zw *zip.Writer, dir string, docs []*core.Document, c codec.Codec, ext string, policy naming.Policy) error {
	used := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		name := entryName(doc, ext, policy, used)

		data, err := c.Encode(doc)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", doc.ID, err)
		}

		header := &zip.FileHeader{
			Name:     path.Join(dir, name),
			Method:   zip.Deflate,
			Modified: doc.ModifiedAt,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", header.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", header.Name, err)
		}
	}
	return nil
}

func entryName(doc *core.Document, ext string, policy naming.Policy, used map[string]bool) string {
	candidates := []string{policy.Resolve(doc) + ext, policy.Fallback(doc) + ext}
	for _, name := range candidates {
		if !used[strings.ToLower(name)] {
			used[strings.ToLower(name)] = true
			return name
		}
	}
	// Same document listed more than once.
	base := policy.Fallback(doc)
	for i := 2; ; i++ {
		name := base + "-" + strconv.Itoa(i) + ext
		if !used[strings.ToLower(name)] {
			used[strings.ToLower(name)] = true
			return name
		}
	}
}
