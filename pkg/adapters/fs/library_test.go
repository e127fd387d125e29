package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lectern/pkg/codec"
	"github.com/aretw0/lectern/pkg/core"
	"github.com/aretw0/lectern/pkg/naming"
)

const testRoot = "/library"

// faultyFs fails every attempt to open a file for writing while failWrites
// is set, and renames away from failRenameFrom.
type faultyFs struct {
	afero.Fs
	failWrites     atomic.Bool
	failRenameFrom string
}

var (
	errDiskFull     = errors.New("disk full")
	errRenameDenied = errors.New("rename denied")
)

func (f *faultyFs) Rename(oldname, newname string) error {
	if f.failRenameFrom != "" && oldname == f.failRenameFrom {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errRenameDenied}
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.failWrites.Load() && flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: errDiskFull}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *faultyFs) Create(name string) (afero.File, error) {
	if f.failWrites.Load() {
		return nil, &os.PathError{Op: "create", Path: name, Err: errDiskFull}
	}
	return f.Fs.Create(name)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestLibrary creates an initialized in-memory library.
func setupTestLibrary(t *testing.T, fsys afero.Fs) *Library {
	t.Helper()
	if fsys == nil {
		fsys = afero.NewMemMapFs()
	}
	lib := NewLibrary(Config{
		Path:   testRoot,
		Kind:   core.KindSlide,
		Fs:     fsys,
		Logger: discardLogger(),
	})
	require.NoError(t, lib.Initialize(context.Background()))
	return lib
}

func readBack(t *testing.T, lib *Library, path string) *core.Document {
	t.Helper()
	data, err := afero.ReadFile(lib.fs, path)
	require.NoError(t, err)
	c, ok := lib.codecs.ForPath(path)
	require.True(t, ok)
	doc, err := c.Decode(data)
	require.NoError(t, err)
	return doc
}

func newSlide(name string) *core.Document {
	doc := core.NewDocument(core.KindSlide, name)
	doc.Content = `{"components":[{"type":"text","value":"` + name + `"}]}`
	return doc
}

func TestLoad(t *testing.T) {
	t.Run("Skips Corrupt Files With Warning", func(t *testing.T) {
		dir := t.TempDir()
		c := codec.NewJSONCodec()

		sermon := newSlide("Sermon")
		data, err := c.Encode(sermon)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sermon.json"), data, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), data[:len(data)/2], 0644))

		var logs bytes.Buffer
		lib := NewLibrary(Config{
			Path:   dir,
			Logger: slog.New(slog.NewTextHandler(&logs, nil)),
		})
		require.NoError(t, lib.Initialize(context.Background()))

		assert.Equal(t, 1, lib.Size())
		got, err := lib.Get(sermon.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sermon", got.Name)
		assert.Equal(t, filepath.Join(dir, "sermon.json"), got.Path)

		out := logs.String()
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, "corrupt.json")

		state := lib.State().(LibraryState)
		assert.Equal(t, 1, state.SkippedFiles)
		assert.NotNil(t, state.LastLoad)
	})

	t.Run("Filters Kinds Duplicates And Temp Files", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, fsys.MkdirAll(testRoot, 0755))
		c := codec.NewJSONCodec()

		write := func(name string, doc *core.Document) {
			data, err := c.Encode(doc)
			require.NoError(t, err)
			require.NoError(t, afero.WriteFile(fsys, filepath.Join(testRoot, name), data, 0644))
		}

		slide := newSlide("Welcome")
		write("a.json", slide)
		write("b.json", slide) // same id, later in lexical order
		write("song.json", core.NewDocument(core.KindSong, "Hymn"))
		noKind := &core.Document{ID: core.NewID(), Name: "legacy"}
		write("legacy.json", noKind)
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(testRoot, "notes.txt"), []byte("ignored"), 0644))
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(testRoot, TempFilePrefix+"123"), []byte("{"), 0600))

		lib := setupTestLibrary(t, fsys)

		assert.Equal(t, 2, lib.Size())
		got, err := lib.Get(slide.ID)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(testRoot, "a.json"), got.Path)

		legacy, err := lib.Get(noKind.ID)
		require.NoError(t, err)
		assert.Equal(t, core.KindSlide, legacy.Kind)

		exists, err := afero.Exists(fsys, filepath.Join(testRoot, TempFilePrefix+"123"))
		require.NoError(t, err)
		assert.False(t, exists, "stale temp files are removed")
	})

	t.Run("MustExist", func(t *testing.T) {
		lib := NewLibrary(Config{Path: "/missing", Fs: afero.NewMemMapFs(), MustExist: true})
		assert.Error(t, lib.Initialize(context.Background()))
	})

	t.Run("Unknown Format", func(t *testing.T) {
		lib := NewLibrary(Config{Path: testRoot, Fs: afero.NewMemMapFs(), Format: "toml"})
		assert.Error(t, lib.Initialize(context.Background()))
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("New Document", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		doc := newSlide("Welcome")
		doc.Tags.Add("intro")

		require.NoError(t, lib.Save(ctx, doc))

		assert.Equal(t, filepath.Join(testRoot, "Welcome.json"), doc.Path)
		assert.False(t, doc.CreatedAt.IsZero())
		assert.False(t, doc.ModifiedAt.IsZero())

		got, err := lib.Get(doc.ID)
		require.NoError(t, err)
		assert.Same(t, doc, got)

		onDisk := readBack(t, lib, doc.Path)
		assert.Equal(t, doc.ID, onDisk.ID)
		assert.Equal(t, doc.Content, onDisk.Content)
		assert.True(t, doc.Tags.Equal(onDisk.Tags))
		assert.True(t, doc.ModifiedAt.Equal(onDisk.ModifiedAt))
	})

	t.Run("Name Taken Uses Fallback", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		first := newSlide("Announcements")
		second := newSlide("Announcements")

		require.NoError(t, lib.Save(ctx, first))
		require.NoError(t, lib.Save(ctx, second))

		assert.Equal(t, filepath.Join(testRoot, "Announcements.json"), first.Path)
		assert.True(t, naming.IsFallback(second.Path))
		assert.Contains(t, second.Path, naming.CompactID(second.ID))
		assert.Equal(t, 2, lib.Size())
	})

	t.Run("Unchanged Name Overwrites In Place", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		doc := newSlide("Offering")
		require.NoError(t, lib.Save(ctx, doc))
		path := doc.Path

		next := doc.Clone()
		next.Content = "updated"
		require.NoError(t, lib.Save(ctx, next))

		assert.Equal(t, path, next.Path)
		got, _ := lib.Get(doc.ID)
		assert.Same(t, next, got)
		assert.Equal(t, "updated", readBack(t, lib, path).Content)
		assertFiles(t, lib, "Offering.json")
	})

	t.Run("Rename Moves File", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		doc := newSlide("Draft")
		require.NoError(t, lib.Save(ctx, doc))

		doc.Name = "Final"
		require.NoError(t, lib.Save(ctx, doc))

		assert.Equal(t, filepath.Join(testRoot, "Final.json"), doc.Path)
		assertFiles(t, lib, "Final.json")
		assert.Equal(t, "Final", readBack(t, lib, doc.Path).Name)
	})

	t.Run("Rename Collision Fails", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		a := newSlide("Alpha")
		b := newSlide("Beta")
		require.NoError(t, lib.Save(ctx, a))
		require.NoError(t, lib.Save(ctx, b))
		bModified := b.ModifiedAt

		renamed := b.Clone()
		renamed.Name = "Alpha"
		err := lib.Save(ctx, renamed)

		var conflict *core.NameConflictError
		require.True(t, errors.As(err, &conflict), "expected NameConflictError, got %v", err)
		assert.Equal(t, b.ID, conflict.ID)
		assert.True(t, core.IsNameConflict(err))

		gotA, _ := lib.Get(a.ID)
		gotB, _ := lib.Get(b.ID)
		assert.Same(t, a, gotA)
		assert.Same(t, b, gotB)
		assert.Equal(t, "Beta", readBack(t, lib, b.Path).Name)
		assert.Equal(t, "Alpha", readBack(t, lib, a.Path).Name)
		assert.Equal(t, b.Path, renamed.Path, "failed save restores the path")
		assert.True(t, bModified.Equal(renamed.ModifiedAt), "failed save restores modifiedAt")
		assertFiles(t, lib, "Alpha.json", "Beta.json")
	})

	t.Run("Case Only Rename Onto Another Document Fails", func(t *testing.T) {
		// MemMapFs is case-sensitive: Alpha.json and alpha.json are two files.
		lib := setupTestLibrary(t, nil)
		a := newSlide("Alpha")
		b := newSlide("alpha")
		require.NoError(t, lib.Save(ctx, a))
		require.NoError(t, lib.Save(ctx, b))
		require.NotEqual(t, a.Path, b.Path)

		renamed := a.Clone()
		renamed.Name = "alpha"
		err := lib.Save(ctx, renamed)
		assert.True(t, core.IsNameConflict(err), "expected NameConflictError, got %v", err)

		assert.Equal(t, b.ID, readBack(t, lib, b.Path).ID)
		assert.Equal(t, a.ID, readBack(t, lib, a.Path).ID)
		gotA, _ := lib.Get(a.ID)
		assert.Same(t, a, gotA)
		assertFiles(t, lib, "Alpha.json", "alpha.json")
	})

	t.Run("Fallback Document Keeps Its Path", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		a := newSlide("Hymn")
		b := newSlide("Hymn")
		require.NoError(t, lib.Save(ctx, a))
		require.NoError(t, lib.Save(ctx, b))
		require.True(t, naming.IsFallback(b.Path))
		fallbackPath := b.Path

		b.Content = "edited"
		require.NoError(t, lib.Save(ctx, b))
		assert.Equal(t, fallbackPath, b.Path)
		assert.Equal(t, "edited", readBack(t, lib, fallbackPath).Content)
	})

	t.Run("Fallback Document Reclaims Freed Name", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		a := newSlide("Hymn")
		b := newSlide("Hymn")
		require.NoError(t, lib.Save(ctx, a))
		require.NoError(t, lib.Save(ctx, b))
		require.NoError(t, lib.Remove(ctx, a))

		require.NoError(t, lib.Save(ctx, b))
		assert.Equal(t, filepath.Join(testRoot, "Hymn.json"), b.Path)
		assertFiles(t, lib, "Hymn.json")
	})

	t.Run("Write Failure Leaves Index Untouched", func(t *testing.T) {
		fsys := &faultyFs{Fs: afero.NewMemMapFs()}
		lib := setupTestLibrary(t, fsys)

		doc := newSlide("Original")
		require.NoError(t, lib.Save(ctx, doc))
		originalPath := doc.Path

		fsys.failWrites.Store(true)
		next := doc.Clone()
		next.Name = "Renamed"
		err := lib.Save(ctx, next)
		require.ErrorIs(t, err, errDiskFull)

		got, _ := lib.Get(doc.ID)
		assert.Same(t, doc, got)
		assert.Equal(t, originalPath, next.Path)
		fsys.failWrites.Store(false)
		assertFiles(t, lib, "Original.json")
		assert.Equal(t, "Original", readBack(t, lib, originalPath).Name)

		fresh := newSlide("Never")
		fsys.failWrites.Store(true)
		require.Error(t, lib.Save(ctx, fresh))
		fsys.failWrites.Store(false)
		_, err = lib.Get(fresh.ID)
		assert.True(t, core.IsNotFound(err))
		assert.Empty(t, fresh.Path)
		assert.True(t, fresh.ModifiedAt.IsZero())
	})

	t.Run("Failed Move Back Is Reported", func(t *testing.T) {
		fsys := &faultyFs{Fs: afero.NewMemMapFs()}
		lib := setupTestLibrary(t, fsys)

		doc := newSlide("Original")
		require.NoError(t, lib.Save(ctx, doc))

		fsys.failWrites.Store(true)
		fsys.failRenameFrom = filepath.Join(testRoot, "Renamed.json")
		next := doc.Clone()
		next.Name = "Renamed"
		err := lib.Save(ctx, next)
		fsys.failWrites.Store(false)
		fsys.failRenameFrom = ""

		require.ErrorIs(t, err, errDiskFull)
		require.ErrorIs(t, err, errRenameDenied)
		assert.Contains(t, err.Error(), "Renamed.json")
		got, _ := lib.Get(doc.ID)
		assert.Same(t, doc, got)
		assertFiles(t, lib, "Renamed.json")
	})

	t.Run("Keeps Existing Extension", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, fsys.MkdirAll(testRoot, 0755))
		doc := newSlide("Legacy")
		data, err := codec.NewYAMLCodec().Encode(doc)
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(testRoot, "Legacy.yaml"), data, 0644))

		lib := setupTestLibrary(t, fsys)
		indexed, err := lib.Get(doc.ID)
		require.NoError(t, err)

		next := indexed.Clone()
		next.Name = "Modern"
		require.NoError(t, lib.Save(ctx, next))
		assert.Equal(t, filepath.Join(testRoot, "Modern.yaml"), next.Path)
		assert.Equal(t, "Modern", readBack(t, lib, next.Path).Name)
	})

	t.Run("Rejects Invalid Documents", func(t *testing.T) {
		lib := setupTestLibrary(t, nil)
		assert.ErrorIs(t, lib.Save(ctx, nil), core.ErrInvalidDocument)
		assert.ErrorIs(t, lib.Save(ctx, &core.Document{Name: "no id"}), core.ErrInvalidDocument)
		assert.ErrorIs(t, lib.Save(ctx, core.NewDocument(core.KindSong, "wrong kind")), core.ErrInvalidDocument)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	lib := setupTestLibrary(t, nil)

	doc := newSlide("Closing")
	require.NoError(t, lib.Save(ctx, doc))
	path := doc.Path

	require.NoError(t, lib.Remove(ctx, doc))
	_, err := lib.Get(doc.ID)
	assert.True(t, core.IsNotFound(err))
	exists, err := afero.Exists(lib.fs, path)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, lib.Remove(ctx, doc), "second remove is a no-op")

	t.Run("Stale Handle Does Not Delete Other File", func(t *testing.T) {
		other := newSlide("Closing")
		require.NoError(t, lib.Save(ctx, other))
		require.Equal(t, path, other.Path)

		require.NoError(t, lib.Remove(ctx, doc))
		exists, err := afero.Exists(lib.fs, path)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

// TestRemoveStaleHandleRacesSave removes a stale handle while another
// document is saved under the same file name. The new file must survive.
func TestRemoveStaleHandleRacesSave(t *testing.T) {
	ctx := context.Background()
	lib := setupTestLibrary(t, nil)

	stale := newSlide("Closing")
	require.NoError(t, lib.Save(ctx, stale))
	require.NoError(t, lib.Remove(ctx, stale))
	require.NotEmpty(t, stale.Path)

	for i := 0; i < 200; i++ {
		fresh := newSlide("Closing")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, lib.Remove(ctx, stale))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, lib.Save(ctx, fresh))
		}()
		wg.Wait()

		exists, err := afero.Exists(lib.fs, fresh.Path)
		require.NoError(t, err)
		require.True(t, exists, "iteration %d: file of the indexed document was deleted", i)
		require.NoError(t, lib.Remove(ctx, fresh))
	}
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	lib := setupTestLibrary(t, nil)

	doc := newSlide("Scripture")
	require.NoError(t, lib.Save(ctx, doc))

	edited := doc.Clone()
	edited.Content = "edited outside"
	data, err := codec.NewJSONCodec().Encode(edited)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(lib.fs, doc.Path, data, 0644))

	got, err := lib.Reload(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited outside", got.Content)
	indexed, _ := lib.Get(doc.ID)
	assert.Same(t, got, indexed)

	require.NoError(t, afero.WriteFile(lib.fs, doc.Path, data[:10], 0644))
	_, err = lib.Reload(ctx, doc.ID)
	var formatErr *core.FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, doc.Path, formatErr.Source)
	indexed, _ = lib.Get(doc.ID)
	assert.Same(t, got, indexed, "failed reload keeps the indexed instance")

	_, err = lib.Reload(ctx, core.NewID())
	assert.True(t, core.IsNotFound(err))
}

func TestAllOrdering(t *testing.T) {
	ctx := context.Background()
	lib := setupTestLibrary(t, nil)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, lib.Save(ctx, newSlide(name)))
	}

	var names []string
	for _, d := range lib.All() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func assertFiles(t *testing.T, lib *Library, want ...string) {
	t.Helper()
	entries, err := afero.ReadDir(lib.fs, lib.Path)
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), TempFilePrefix) {
			t.Errorf("temp file left behind: %s", e.Name())
		}
		got = append(got, e.Name())
	}
	assert.ElementsMatch(t, want, got)
}
