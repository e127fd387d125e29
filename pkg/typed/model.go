// Package typed offers a type-safe view over document content.
//
// The content of a typed document is the JSON encoding of T; name and tags
// stay first-class so that file naming and filtering keep working.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/lectern/pkg/core"
)

// DocumentModel wraps the raw core.Document with a typed Data field.
// It acts as a typed view of a document.
type DocumentModel[T any] struct {
	ID    string
	Name  string
	Tags  []string
	Data  T        // decoded content
	Saver Saver[T] // Active Record reference interface
}

// Saver interface avoids tight coupling with Repository/Service structs.
type Saver[T any] interface {
	Save(ctx context.Context, doc *DocumentModel[T]) error
}

// Save persists the document using the attached saver (Repository or Service).
func (d *DocumentModel[T]) Save(ctx context.Context) error {
	if d.Saver == nil {
		return fmt.Errorf("document is detached (missing Saver)")
	}
	return d.Saver.Save(ctx, d)
}

func encodeData[T any](data T) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal typed data: %w", err)
	}
	return string(b), nil
}

// fromCore converts a core.Document to DocumentModel. Empty content decodes
// to the zero value of T.
func fromCore[T any](doc *core.Document, saver Saver[T]) (*DocumentModel[T], error) {
	var data T
	if doc.Content != "" {
		if err := json.Unmarshal([]byte(doc.Content), &data); err != nil {
			return nil, fmt.Errorf("unmarshal to target type failed for %s: %w", doc.ID, err)
		}
	}
	return &DocumentModel[T]{
		ID:    doc.ID,
		Name:  doc.Name,
		Tags:  doc.Tags.Sorted(),
		Data:  data,
		Saver: saver,
	}, nil
}

func apply[T any](doc *DocumentModel[T], content string) func(*core.Document) {
	return func(d *core.Document) {
		d.Name = doc.Name
		d.Content = content
		d.Tags = core.NewTags(doc.Tags...)
	}
}
