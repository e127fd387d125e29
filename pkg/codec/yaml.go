package codec

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/lectern/pkg/core"
)

// YAMLCodec handles reading and writing YAML documents.
//
// A YAML stream cut short may still parse, so truncation is only detected
// when it breaks the syntax or drops a required field.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

func (c *YAMLCodec) Name() string { return "yaml" }

func (c *YAMLCodec) Encode(doc *core.Document) ([]byte, error) {
	if doc == nil {
		return nil, core.ErrInvalidDocument
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toRecord(doc)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *YAMLCodec) Decode(data []byte) (*core.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &core.FormatError{Reason: "empty input"}
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, &core.FormatError{Reason: "invalid yaml", Err: err}
	}
	return fromRecord(rec)
}

// Sniff reports whether data is a YAML mapping carrying the format marker.
func (c *YAMLCodec) Sniff(data []byte) bool {
	var probe struct {
		Format string `yaml:"format"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Format == FormatName
}
