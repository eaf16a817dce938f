package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/internal/datapackage"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

func TestOpen(t *testing.T) {
	t.Run("empty package", func(t *testing.T) {
		dir := newPackage(t, fixture{})
		s := openStore(t, dir)

		for _, count := range []func(Querier) (int, error){
			s.Tags().Len, s.Things().Len, s.ThingTags().Len, s.Changes().Len,
		} {
			n, err := count(s.DB())
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		}
		assert.Equal(t, "test-package", s.Package().Name)
		assert.True(t, s.Strategy().Memory)
	})

	t.Run("canonicalizes the package path", func(t *testing.T) {
		dir := newPackage(t, seeded)
		link := filepath.Join(t.TempDir(), "link")
		require.NoError(t, os.Symlink(dir, link))

		s := openStore(t, link)
		want, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		assert.Equal(t, want, s.Dir())

		n, err := s.Tags().Len(s.DB())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("missing descriptor", func(t *testing.T) {
		_, err := Open(types.Config{PackageDir: t.TempDir(), Staging: types.MemoryStaging})
		assert.ErrorIs(t, err, datapackage.ErrMissingDescriptor)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Open(types.Config{})
		assert.ErrorIs(t, err, types.ErrPackageDirEmpty)
	})
}

func TestClose(t *testing.T) {
	s := openStore(t, newPackage(t, fixture{}))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Close is idempotent")

	_, err := s.Commit()
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	assert.ErrorIs(t, s.Reload(), types.ErrStoreClosed)
	assert.ErrorIs(t, s.Discard(), types.ErrStoreClosed)
}

func TestUpdateRollsBack(t *testing.T) {
	s := openStore(t, newPackage(t, seeded))
	boom := errors.New("boom")

	err := s.Update(func(q Querier) error {
		if err := s.Tags().Add(q, *types.NewTag("rust", "Rust", "")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Tags().Get(s.DB(), "rust")
	assert.ErrorIs(t, err, types.ErrNotFound)
	n, err := s.Changes().Len(s.DB())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDiskStagingSurvivesReopen(t *testing.T) {
	dir := newPackage(t, seeded)

	s, err := Open(types.Config{PackageDir: dir})
	require.NoError(t, err)
	require.False(t, s.Strategy().Memory)
	require.NoError(t, s.Tags().Add(s.DB(), *types.NewTag("rust", "Rust", "")))
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(dir, types.DefaultStagingFile))
	require.NoError(t, err, "side file is created in the package")

	reopened := openStoreWith(t, types.Config{PackageDir: dir})
	tag, err := reopened.Tags().Get(reopened.DB(), "rust")
	require.NoError(t, err)
	assert.Equal(t, "rust", tag.ID)
	n, err := reopened.Changes().Len(reopened.DB())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "id,name,summary\nmisc,Miscellaneous,\nlang,Languages,Programming languages\nweb,Web,\n",
		readCSVFile(t, dir, "tag.csv"), "staged work never reaches the CSV before commit")

	memory := openStore(t, dir)
	_, err = memory.Tags().Get(memory.DB(), "rust")
	assert.ErrorIs(t, err, types.ErrNotFound, "memory staging starts empty")
}

func TestDiscard(t *testing.T) {
	dir := newPackage(t, seeded)
	s := openStore(t, dir)

	require.NoError(t, s.Tags().Add(s.DB(), *types.NewTag("rust", "", "")))
	require.NoError(t, s.Tags().Remove(s.DB(), "web"))

	require.NoError(t, s.Discard())

	_, err := s.Tags().Get(s.DB(), "rust")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.Tags().Get(s.DB(), "web")
	assert.NoError(t, err, "tombstones are discarded too")
	n, err := s.Changes().Len(s.DB())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
