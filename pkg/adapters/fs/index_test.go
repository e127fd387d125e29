package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/lectern/pkg/core"
)

func TestIndex(t *testing.T) {
	x := newIndex()

	b := core.NewDocument(core.KindSlide, "beta")
	b.Path = "/lib/beta.json"
	a1 := core.NewDocument(core.KindSlide, "alpha")
	a2 := core.NewDocument(core.KindSlide, "alpha")

	assert.True(t, x.Put(b, true))
	assert.True(t, x.Put(a1, true))
	assert.True(t, x.Put(a2, true))
	assert.Equal(t, 3, x.Len())

	t.Run("Add Keeps First", func(t *testing.T) {
		dup := &core.Document{ID: b.ID, Name: "impostor"}
		assert.False(t, x.Put(dup, true))
		got, _ := x.Get(b.ID)
		assert.Same(t, b, got)
	})

	t.Run("All Is Ordered", func(t *testing.T) {
		all := x.All()
		assert.Len(t, all, 3)
		assert.Equal(t, "alpha", all[0].Name)
		assert.Equal(t, "alpha", all[1].Name)
		assert.Less(t, all[0].ID, all[1].ID)
		assert.Same(t, b, all[2])
	})

	t.Run("FindByPath", func(t *testing.T) {
		id, ok := x.FindByPath("/lib/beta.json")
		assert.True(t, ok)
		assert.Equal(t, b.ID, id)

		_, ok = x.FindByPath("/lib/missing.json")
		assert.False(t, ok)
	})

	t.Run("Remove", func(t *testing.T) {
		x.Remove(b.ID)
		_, ok := x.Get(b.ID)
		assert.False(t, ok)
		x.Remove(b.ID)
		assert.Equal(t, 2, x.Len())
	})
}
