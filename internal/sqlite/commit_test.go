package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/internal/datapackage"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// overlay captures everything the views resolve to.
type overlay struct {
	tags      []types.Tag
	things    []types.Thing
	thingTags []types.ThingTag
}

func snapshot(t *testing.T, s *Store) overlay {
	t.Helper()
	q := s.DB()
	tags, err := s.Tags().List(q)
	require.NoError(t, err)
	things, err := s.Things().List(q)
	require.NoError(t, err)
	thingTags, err := s.ThingTags().List(q)
	require.NoError(t, err)
	return overlay{tags: tags, things: things, thingTags: thingTags}
}

func stagedRows(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT
    (SELECT COUNT(*) FROM staging.tag) +
    (SELECT COUNT(*) FROM staging.thing) +
    (SELECT COUNT(*) FROM staging.thing_tag) +
    (SELECT COUNT(*) FROM staging.tombstone)`).Scan(&n))
	return n
}

func ticking(n int) func() time.Time {
	instants := make([]time.Time, n)
	for i := range instants {
		instants[i] = epoch.Add(time.Duration(i) * time.Second)
	}
	return steppingClock(instants...)
}

func TestCommitEmptyChangelog(t *testing.T) {
	dir := newPackage(t, seeded)
	s := openStore(t, dir)
	before := readCSVFile(t, dir, "tag.csv")

	report, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, types.FlushFlushed, report.State)
	assert.Zero(t, report.Applied)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, before, readCSVFile(t, dir, "tag.csv"))
}

func TestCommitWritesCSV(t *testing.T) {
	dir := newPackage(t, seeded)
	s := openStore(t, dir, WithClock(ticking(4)))

	rust := buildThing(t, types.NewThing().
		WithURL("https://rust-lang.org").
		WithName("Rust").
		WithSummary("A language, with commas").
		WithCategory("lang").
		WithTags([]string{"web", "rust"}))

	require.NoError(t, s.Update(func(q Querier) error {
		if err := s.Tags().Add(q, *types.NewTag("rust", "Rust", "Systems language")); err != nil {
			return err
		}
		if err := s.Tags().Replace(q, *types.NewTag("misc", "Miscellaneous", "Everything else")); err != nil {
			return err
		}
		if err := s.Things().Add(q, rust); err != nil {
			return err
		}
		return s.ThingTags().Remove(q, types.ThingTag{ThingID: "https://go.dev", TagID: "misc"})
	}))
	before := snapshot(t, s)

	report, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, types.FlushFlushed, report.State)
	assert.Equal(t, 4, report.Applied)
	assert.Zero(t, report.Skipped)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "commit_tag.csv", []byte(readCSVFile(t, dir, "tag.csv")))
	g.Assert(t, "commit_thing.csv", []byte(readCSVFile(t, dir, "thing.csv")))
	g.Assert(t, "commit_thing_tag.csv", []byte(readCSVFile(t, dir, "thing_tag.csv")))

	n, err := s.Changes().Len(s.DB())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, stagedRows(t, s))
	assert.Equal(t, before, snapshot(t, s), "commit must not change what the overlay resolves to")

	require.NoError(t, s.Close())
	reopened := openStore(t, dir)
	assert.Equal(t, before, snapshot(t, reopened))
}

func TestCommitReplaysDeletes(t *testing.T) {
	dir := newPackage(t, seeded)
	s := openStore(t, dir, WithClock(ticking(2)))

	require.NoError(t, s.Tags().Remove(s.DB(), "web"))
	require.NoError(t, s.Things().Remove(s.DB(), "https://go.dev"))
	before := snapshot(t, s)

	report, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)

	assert.Equal(t, "id,name,summary\nmisc,Miscellaneous,\nlang,Languages,Programming languages\n", readCSVFile(t, dir, "tag.csv"))
	assert.Equal(t, "url,name,summary,category_id\n", readCSVFile(t, dir, "thing.csv"))
	assert.Equal(t, "thing_id,tag_id\n", readCSVFile(t, dir, "thing_tag.csv"))
	assert.Equal(t, before, snapshot(t, s))
}

func TestCommitReplaceRewritesTags(t *testing.T) {
	dir := newPackage(t, seeded)
	s := openStore(t, dir, WithClock(ticking(1)))

	require.NoError(t, s.Things().Replace(s.DB(), types.Thing{
		URL: "https://go.dev", Name: "Go", Summary: strPtr("Build simple, secure, scalable systems"),
		CategoryID: "lang", Tags: []string{"lang", "web"},
	}))

	_, err := s.Commit()
	require.NoError(t, err)

	assert.Equal(t,
		"url,name,summary,category_id\nhttps://go.dev,Go,\"Build simple, secure, scalable systems\",lang\n",
		readCSVFile(t, dir, "thing.csv"))
	assert.Equal(t,
		"thing_id,tag_id\nhttps://go.dev,lang\nhttps://go.dev,web\n",
		readCSVFile(t, dir, "thing_tag.csv"))
}

func TestCommitClockSteppedBack(t *testing.T) {
	dir := newPackage(t, seeded)
	cfg := types.Config{PackageDir: dir}

	s, err := Open(cfg, WithClock(steppingClock(epoch.Add(10*time.Second))))
	require.NoError(t, err)
	require.NoError(t, s.Tags().Add(s.DB(), *types.NewTag("extra", "Extra", "")))
	require.NoError(t, s.Close())

	// The next run's clock is behind the first one.
	s = openStoreWith(t, cfg, WithClock(steppingClock(epoch.Add(5*time.Second))))
	require.NoError(t, s.Tags().Remove(s.DB(), "extra"))
	_, err = s.Tags().Get(s.DB(), "extra")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = s.Commit()
	require.NoError(t, err)

	assert.NotContains(t, readCSVFile(t, dir, "tag.csv"), "extra")
	_, err = s.Tags().Get(s.DB(), "extra")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCommitRejectsUnsupportedOperation(t *testing.T) {
	dir := newPackage(t, seeded)
	s := openStore(t, dir)
	before := readCSVFile(t, dir, "tag.csv")

	require.NoError(t, s.Tags().Add(s.DB(), *types.NewTag("rust", "", "")))
	tt := types.ThingTag{ThingID: "https://go.dev", TagID: "web"}
	_, err := s.Changes().Add(s.DB(), types.ThingTagChange(types.OpReplace, tt))
	require.NoError(t, err)

	report, err := s.Commit()
	require.ErrorIs(t, err, types.ErrUnsupportedOperation)
	assert.Equal(t, types.FlushPending, report.State)
	assert.Zero(t, report.Applied)
	assert.Equal(t, before, readCSVFile(t, dir, "tag.csv"))

	n, err := s.Changes().Len(s.DB())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCommitRetryAfterFailure(t *testing.T) {
	dir := newPackage(t, seeded)
	s := openStore(t, dir, WithClock(ticking(2)))
	thingPath := filepath.Join(dir, datapackage.DataDir, "thing.csv")
	original := readCSVFile(t, dir, "thing.csv")

	require.NoError(t, s.Tags().Add(s.DB(), *types.NewTag("rust", "Rust", "")))
	require.NoError(t, s.Things().Add(s.DB(), types.Thing{URL: "https://rust-lang.org", Name: "Rust", CategoryID: "rust"}))

	// A directory in place of thing.csv makes the second replay fail.
	require.NoError(t, os.Remove(thingPath))
	require.NoError(t, os.Mkdir(thingPath, 0o755))

	report, err := s.Commit()
	require.Error(t, err)
	assert.Equal(t, types.FlushDraining, report.State)
	assert.Equal(t, 1, report.Applied)

	events, err := s.Changes().List(s.DB())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Applied)
	assert.False(t, events[1].Applied)

	require.NoError(t, os.Remove(thingPath))
	require.NoError(t, os.WriteFile(thingPath, []byte(original), 0o644))

	report, err = s.Commit()
	require.NoError(t, err)
	assert.Equal(t, types.FlushFlushed, report.State)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 1, report.Skipped)

	assert.Equal(t,
		"id,name,summary\nmisc,Miscellaneous,\nlang,Languages,Programming languages\nweb,Web,\nrust,Rust,\n",
		readCSVFile(t, dir, "tag.csv"), "the applied event is not written twice")
	assert.Equal(t,
		"url,name,summary,category_id\nhttps://go.dev,Go,The Go language,lang\nhttps://rust-lang.org,Rust,,rust\n",
		readCSVFile(t, dir, "thing.csv"))
}

func TestCommitDiskStagingIsCleared(t *testing.T) {
	dir := newPackage(t, seeded)
	cfg := types.Config{PackageDir: dir}

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Tags().Add(s.DB(), *types.NewTag("rust", "", "")))
	_, err = s.Commit()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openStoreWith(t, cfg)
	n, err := reopened.Changes().Len(reopened.DB())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, stagedRows(t, reopened))

	_, err = reopened.Tags().Get(reopened.DB(), "rust")
	require.NoError(t, err)
}

func TestCommitClosedStore(t *testing.T) {
	s := openStore(t, newPackage(t, seeded))
	require.NoError(t, s.Close())

	_, err := s.Commit()
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}
