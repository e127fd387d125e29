// Package codec serializes documents to and from their self-describing
// on-disk representation.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/lectern/pkg/core"
)

const (
	// FormatName marks a byte stream as a lectern document.
	FormatName = "lectern"
	// CurrentVersion is the schema version written by this package.
	CurrentVersion = "1"

	currentMajor = 1

	// contentBase64 marks content stored as base64 because it is not valid
	// UTF-8 and the format cannot carry it verbatim.
	contentBase64 = "base64"
)

// Codec defines how to read and write a specific file format.
type Codec interface {
	// Name identifies the format ("json", "yaml").
	Name() string
	// Encode converts the document to bytes.
	Encode(doc *core.Document) ([]byte, error)
	// Decode parses bytes into a document. It fails with *core.FormatError or
	// *core.SchemaError.
	Decode(data []byte) (*core.Document, error)
	// Sniff reports whether data looks like a document in this format.
	Sniff(data []byte) bool
}

// record is the wire representation shared by every codec.
type record struct {
	Format     string        `json:"format" yaml:"format"`
	Version    schemaVersion `json:"version" yaml:"version"`
	Kind       string        `json:"kind,omitempty" yaml:"kind,omitempty"`
	ID         string        `json:"id" yaml:"id"`
	Name       string        `json:"name" yaml:"name"`
	Tags       []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt  string        `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	ModifiedAt string        `json:"modifiedAt,omitempty" yaml:"modifiedAt,omitempty"`
	Content    string        `json:"content" yaml:"content"`

	ContentEncoding string `json:"contentEncoding,omitempty" yaml:"contentEncoding,omitempty"`
}

// schemaVersion accepts the version as a string or as a bare number, so
// that a number still reads as a version and not as a malformed document.
type schemaVersion string

func (v *schemaVersion) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = schemaVersion(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = schemaVersion(n.String())
	return nil
}

func toRecord(doc *core.Document) record {
	return record{
		Format:     FormatName,
		Version:    CurrentVersion,
		Kind:       doc.Kind,
		ID:         doc.ID,
		Name:       doc.Name,
		Tags:       doc.Tags.Sorted(),
		CreatedAt:  formatTime(doc.CreatedAt),
		ModifiedAt: formatTime(doc.ModifiedAt),
		Content:    doc.Content,
	}
}

func fromRecord(r record) (*core.Document, error) {
	if r.Format == "" {
		return nil, &core.FormatError{Reason: "missing format marker"}
	}
	if r.Format != FormatName {
		return nil, &core.FormatError{Reason: fmt.Sprintf("foreign format %q", r.Format)}
	}
	if err := checkVersion(string(r.Version)); err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, &core.FormatError{Reason: "missing id"}
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return nil, &core.FormatError{Reason: "malformed id", Err: err}
	}

	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, &core.FormatError{Reason: "malformed createdAt", Err: err}
	}
	modified, err := parseTime(r.ModifiedAt)
	if err != nil {
		return nil, &core.FormatError{Reason: "malformed modifiedAt", Err: err}
	}

	content := r.Content
	switch r.ContentEncoding {
	case "":
	case contentBase64:
		raw, err := base64.StdEncoding.DecodeString(r.Content)
		if err != nil {
			return nil, &core.FormatError{Reason: "malformed base64 content", Err: err}
		}
		content = string(raw)
	default:
		return nil, &core.FormatError{Reason: fmt.Sprintf("unknown content encoding %q", r.ContentEncoding)}
	}

	return &core.Document{
		ID:         r.ID,
		Kind:       r.Kind,
		Name:       r.Name,
		Tags:       core.NewTags(r.Tags...),
		CreatedAt:  created,
		ModifiedAt: modified,
		Content:    content,
	}, nil
}

// checkVersion accepts any minor revision of the current major version.
// A missing version is read as the current one.
func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	major, _, _ := strings.Cut(v, ".")
	n, err := strconv.Atoi(major)
	if err != nil || n != currentMajor {
		return &core.SchemaError{Version: v}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Registry maps file extensions to codecs.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// DefaultRegistry returns the standard set of codecs.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".json", NewJSONCodec())
	r.Register(".yaml", NewYAMLCodec())
	r.Register(".yml", NewYAMLCodec())
	return r
}

// Register binds a codec to an extension (with or without the leading dot).
func (r *Registry) Register(ext string, c Codec) {
	r.codecs[normalizeExt(ext)] = c
}

// ForExt returns the codec bound to ext.
func (r *Registry) ForExt(ext string) (Codec, bool) {
	c, ok := r.codecs[normalizeExt(ext)]
	return c, ok
}

// ForPath returns the codec bound to the extension of path.
func (r *Registry) ForPath(path string) (Codec, bool) {
	return r.ForExt(filepath.Ext(path))
}

// Extensions lists the registered extensions in lexical order.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ExtFor returns the preferred extension for a format name ("json" -> ".json").
func ExtFor(format string) string {
	return normalizeExt(format)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
