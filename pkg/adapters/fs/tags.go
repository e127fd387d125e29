package fs

import (
	"context"

	"github.com/aretw0/lectern/pkg/core"
)

// AddTag adds a single tag to the indexed instance of doc.
func (l *Library) AddTag(ctx context.Context, doc *core.Document, tag string) (bool, error) {
	return l.mutateTags(ctx, doc, func(t *core.Tags) bool { return t.Add(tag) })
}

// AddTags adds tags to the indexed instance of doc.
func (l *Library) AddTags(ctx context.Context, doc *core.Document, tags ...string) (bool, error) {
	return l.mutateTags(ctx, doc, func(t *core.Tags) bool { return t.Add(tags...) })
}

// SetTags replaces the tag set of the indexed instance of doc.
func (l *Library) SetTags(ctx context.Context, doc *core.Document, tags ...string) (bool, error) {
	return l.mutateTags(ctx, doc, func(t *core.Tags) bool { return t.Set(tags...) })
}

// RemoveTag removes a single tag from the indexed instance of doc.
func (l *Library) RemoveTag(ctx context.Context, doc *core.Document, tag string) (bool, error) {
	return l.mutateTags(ctx, doc, func(t *core.Tags) bool { return t.Remove(tag) })
}

// RemoveTags removes tags from the indexed instance of doc.
func (l *Library) RemoveTags(ctx context.Context, doc *core.Document, tags ...string) (bool, error) {
	return l.mutateTags(ctx, doc, func(t *core.Tags) bool { return t.Remove(tags...) })
}

// mutateTags applies op to the indexed instance and persists it in place.
// The caller's reference may be stale, so only its identifier is used.
// A document that is no longer indexed is reported as unchanged.
func (l *Library) mutateTags(ctx context.Context, doc *core.Document, op func(*core.Tags) bool) (bool, error) {
	if doc == nil || doc.ID == "" {
		return false, nil
	}

	unlock := l.locks.Lock(idKey(doc.ID))
	defer unlock()

	current, ok := l.index.Get(doc.ID)
	if !ok {
		l.logger.Debug("tag change on a removed document ignored", "id", doc.ID)
		return false, nil
	}

	snapshot := current.Tags.Clone()
	prevModified := current.ModifiedAt

	if !op(&current.Tags) {
		return false, nil
	}

	current.ModifiedAt = l.now()
	if err := l.writeDocument(current, current.Path); err != nil {
		current.Tags = snapshot
		current.ModifiedAt = prevModified
		return false, err
	}
	return true, nil
}
