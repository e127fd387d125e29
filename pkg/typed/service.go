package typed

import (
	"context"

	"github.com/aretw0/lectern/pkg/core"
)

// Service wraps a core.Service to provide type-safe access.
type Service[T any] struct {
	svc *core.Service
}

// NewService creates a new typed service wrapper.
func NewService[T any](svc *core.Service) *Service[T] {
	return &Service[T]{svc: svc}
}

// Save persists a typed document through the core service validation.
func (s *Service[T]) Save(ctx context.Context, doc *DocumentModel[T]) error {
	if doc.Saver == nil {
		doc.Saver = s
	}
	content, err := encodeData(doc.Data)
	if err != nil {
		return err
	}

	if doc.ID == "" {
		created, err := s.svc.Create(ctx, doc.Name, content, doc.Tags...)
		if err != nil {
			return err
		}
		doc.ID = created.ID
		return nil
	}

	_, err = s.svc.Update(ctx, doc.ID, apply(doc, content))
	return err
}

// Get retrieves a document via Service.
func (s *Service[T]) Get(ctx context.Context, id string) (*DocumentModel[T], error) {
	doc, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromCore(doc, s)
}

// List retrieves the documents matching filter via Service.
func (s *Service[T]) List(ctx context.Context, filter core.Filter) ([]*DocumentModel[T], error) {
	docs, err := s.svc.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]*DocumentModel[T], 0, len(docs))
	for _, d := range docs {
		model, err := fromCore(d, s)
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a document via Service.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	return s.svc.Delete(ctx, id)
}

// Watch observes changes in the library.
func (s *Service[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return s.svc.Watch(ctx, pattern)
}
