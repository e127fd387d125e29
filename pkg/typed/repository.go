package typed

import (
	"context"
	"fmt"

	"github.com/aretw0/lectern/pkg/core"
)

// Repository wraps a core.Store to provide type-safe access.
type Repository[T any] struct {
	store core.Store
}

// NewRepository creates a new type-safe wrapper around an existing store.
func NewRepository[T any](store core.Store) *Repository[T] {
	return &Repository[T]{store: store}
}

// Save persists a typed document. A model without ID is created and
// receives its identifier.
func (r *Repository[T]) Save(ctx context.Context, doc *DocumentModel[T]) error {
	content, err := encodeData(doc.Data)
	if err != nil {
		return err
	}
	if doc.Saver == nil {
		doc.Saver = r
	}

	var next *core.Document
	if doc.ID == "" {
		next = core.NewDocument("", doc.Name)
	} else if current, err := r.store.Get(doc.ID); err == nil {
		next = current.Clone()
	} else if core.IsNotFound(err) {
		next = &core.Document{ID: doc.ID}
	} else {
		return err
	}
	apply(doc, content)(next)

	if err := r.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save typed document: %w", err)
	}
	doc.ID = next.ID
	return nil
}

// Get retrieves a document and unmarshals it.
func (r *Repository[T]) Get(ctx context.Context, id string) (*DocumentModel[T], error) {
	doc, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	return fromCore(doc, r)
}

// List returns all documents converted to the typed model.
func (r *Repository[T]) List(ctx context.Context) ([]*DocumentModel[T], error) {
	docs := r.store.All()
	result := make([]*DocumentModel[T], 0, len(docs))
	for _, d := range docs {
		model, err := fromCore(d, r)
		if err != nil {
			return nil, fmt.Errorf("failed to process document %s: %w", d.ID, err)
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a document by ID.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	doc, err := r.store.Get(id)
	if err != nil {
		return err
	}
	return r.store.Remove(ctx, doc)
}
