package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxNameLength bounds the display name accepted by the service, in runes.
const MaxNameLength = 1024

const defaultEventBuffer = 100

// Service handles the identifier-based use cases on top of a Store.
//
// Mutations are copy-on-write: the indexed instance is cloned, changed and
// saved, so a failed save never leaks into the index.
type Service struct {
	store           Store
	kind            string
	logger          *slog.Logger
	eventBufferSize int
	mu              sync.RWMutex
}

// NewService creates a new Service for documents of the given kind.
func NewService(store Store, kind string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if kind == "" {
		kind = KindSlide
	}
	return &Service{
		store:           store,
		kind:            kind,
		logger:          logger,
		eventBufferSize: defaultEventBuffer,
	}
}

// SetEventBuffer changes the buffer used to decouple Watch consumers.
func (s *Service) SetEventBuffer(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size <= 0 {
		size = defaultEventBuffer
	}
	s.eventBufferSize = size
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Create builds a new document and saves it.
func (s *Service) Create(ctx context.Context, name, content string, tags ...string) (*Document, error) {
	if err := validation.Validate(name, validation.RuneLength(0, MaxNameLength)); err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}
	if err := validation.Validate(s.kind, validation.Required, validation.In(KindSlide, KindSong, KindBible)); err != nil {
		return nil, fmt.Errorf("invalid kind: %w", err)
	}

	doc := NewDocument(s.kind, name)
	doc.Content = content
	doc.Tags.Add(tags...)

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get retrieves a document by identifier.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	if id == "" {
		return nil, errors.New("document ID cannot be empty")
	}
	return s.store.Get(id)
}

// Filter narrows List results.
type Filter struct {
	Tag     string // only documents carrying this tag
	Pattern string // doublestar pattern matched against the display name
}

// List retrieves documents ordered by name.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Document, error) {
	if filter.Pattern != "" && !doublestar.ValidatePattern(filter.Pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", filter.Pattern, doublestar.ErrBadPattern)
	}

	var out []*Document
	for _, doc := range s.store.All() {
		if filter.Tag != "" && !doc.Tags.Has(filter.Tag) {
			continue
		}
		if filter.Pattern != "" {
			ok, err := doublestar.Match(filter.Pattern, doc.Name)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, doc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Rename changes the display name, which may move the backing file.
func (s *Service) Rename(ctx context.Context, id, name string) (*Document, error) {
	if err := validation.Validate(name, validation.RuneLength(0, MaxNameLength)); err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}
	return s.Update(ctx, id, func(d *Document) { d.Name = name })
}

// SetContent replaces the payload of a document.
func (s *Service) SetContent(ctx context.Context, id, content string) (*Document, error) {
	return s.Update(ctx, id, func(d *Document) { d.Content = content })
}

// Update applies fn to a copy of the indexed document and saves the copy.
func (s *Service) Update(ctx context.Context, id string, fn func(*Document)) (*Document, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	fn(next)
	if err := s.store.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.store.Remove(ctx, doc)
}

// Tag adds tags to a document.
func (s *Service) Tag(ctx context.Context, id string, tags ...string) (bool, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.store.AddTags(ctx, doc, tags...)
}

// Untag removes tags from a document.
func (s *Service) Untag(ctx context.Context, id string, tags ...string) (bool, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.store.RemoveTags(ctx, doc, tags...)
}

// SetTags replaces the tag set of a document.
func (s *Service) SetTags(ctx context.Context, id string, tags ...string) (bool, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.store.SetTags(ctx, doc, tags...)
}

// Watch observes changes in the store if supported.
// Events are buffered so a slow consumer does not stall the producer.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.store.(Watchable)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	upstream, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	size := s.eventBufferSize
	s.mu.RUnlock()

	out := make(chan Event, size)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-upstream:
				if !ok {
					return
				}
				select {
				case out <- e:
				default:
					s.logger.Warn("dropping event, consumer too slow", "event", e.String())
				}
			}
		}
	}()
	return out, nil
}
