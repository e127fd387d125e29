package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/aretw0/lectern/pkg/core"
)

// JSONCodec handles reading and writing JSON documents.
type JSONCodec struct {
	// Indent is the per-level indentation used by Encode. Empty means compact.
	Indent string
}

// NewJSONCodec creates a JSON codec that writes indented output.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: "  "}
}

func (c *JSONCodec) Name() string { return "json" }

func (c *JSONCodec) Encode(doc *core.Document) ([]byte, error) {
	if doc == nil {
		return nil, core.ErrInvalidDocument
	}
	rec := toRecord(doc)
	// encoding/json would replace invalid bytes with U+FFFD.
	if !utf8.ValidString(rec.Name) {
		return nil, fmt.Errorf("%w: name is not valid UTF-8", core.ErrInvalidDocument)
	}
	for _, tag := range rec.Tags {
		if !utf8.ValidString(tag) {
			return nil, fmt.Errorf("%w: tag %q is not valid UTF-8", core.ErrInvalidDocument, tag)
		}
	}
	if !utf8.ValidString(rec.Content) {
		rec.Content = base64.StdEncoding.EncodeToString([]byte(rec.Content))
		rec.ContentEncoding = contentBase64
	}
	if c.Indent == "" {
		return json.Marshal(rec)
	}
	return json.MarshalIndent(rec, "", c.Indent)
}

func (c *JSONCodec) Decode(data []byte) (*core.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &core.FormatError{Reason: "empty input"}
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &core.FormatError{Reason: "unexpected field type", Err: err}
		}
		return nil, &core.FormatError{Reason: "invalid json", Err: err}
	}
	return fromRecord(rec)
}

// Sniff reports whether data is a JSON object carrying the format marker.
func (c *JSONCodec) Sniff(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var probe struct {
		Format string `json:"format"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return false
	}
	return probe.Format == FormatName
}
