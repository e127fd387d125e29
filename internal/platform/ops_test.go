package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lectern/internal/platform"
	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("Builds Service Over Library", func(t *testing.T) {
		fixed := time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC)
		svc, err := platform.New("/songs",
			platform.WithFs(afero.NewMemMapFs()),
			platform.WithKind(core.KindSong),
			platform.WithFormat("yaml"),
			platform.WithClock(func() time.Time { return fixed }),
			platform.WithEventBuffer(8),
		)
		require.NoError(t, err)

		doc, err := svc.Create(ctx, "Silent Night", "lyrics")
		require.NoError(t, err)
		assert.Equal(t, core.KindSong, doc.Kind)
		assert.Equal(t, "/songs/Silent Night.yaml", doc.Path)
		assert.True(t, fixed.Equal(doc.CreatedAt))

		state := svc.State().(core.ServiceState)
		assert.Equal(t, "library", state.StoreType)
		assert.Equal(t, 8, state.EventBufferSize)
	})

	t.Run("Injected Store", func(t *testing.T) {
		lib, err := platform.OpenLibrary("/x", platform.WithFs(afero.NewMemMapFs()))
		require.NoError(t, err)

		svc, err := platform.New("", platform.WithStore(lib))
		require.NoError(t, err)
		assert.Same(t, lib, svc.Store())
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := platform.New("")
		assert.Error(t, err)

		_, err = platform.New("/missing", platform.WithFs(afero.NewMemMapFs()), platform.WithMustExist(true))
		assert.Error(t, err)
	})

	t.Run("Max File Name Length", func(t *testing.T) {
		svc, err := platform.New("/lib", platform.WithFs(afero.NewMemMapFs()), platform.WithMaxFileNameLength(16))
		require.NoError(t, err)
		doc, err := svc.Create(ctx, "A rather long announcement title", "")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(filepath.Base(doc.Path)), 16+len(".json"))
	})

	t.Run("Custom Codec", func(t *testing.T) {
		svc, err := platform.New("/lib",
			platform.WithFs(afero.NewMemMapFs()),
			platform.WithCodec(".lec", codec.NewJSONCodec()),
			platform.WithFormat("lec"),
		)
		require.NoError(t, err)
		doc, err := svc.Create(ctx, "custom", "")
		require.NoError(t, err)
		assert.Equal(t, ".lec", filepath.Ext(doc.Path))
	})
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	source := filepath.Join(base, "source")
	target := filepath.Join(base, "target")
	archive := filepath.Join(base, "slides.zip")

	svc, err := platform.New(source)
	require.NoError(t, err)
	for _, name := range []string{"Call to Worship", "Confession", "Benediction"} {
		_, err := svc.Create(ctx, name, "", "sunday")
		require.NoError(t, err)
	}
	_, err = svc.Create(ctx, "Midweek", "")
	require.NoError(t, err)

	n, err := platform.Export(source, archive, func(d *core.Document) bool { return d.Tags.Has("sunday") })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = os.Stat(archive)
	require.NoError(t, err)

	report, err := platform.Import(ctx, target, archive)
	require.NoError(t, err)
	assert.Equal(t, "archive", report.Format)
	assert.Len(t, report.Saved, 3)

	lib, err := platform.OpenLibrary(target, platform.WithMustExist(true))
	require.NoError(t, err)
	assert.Equal(t, 3, lib.Size())
}
