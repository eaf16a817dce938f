package sqlite

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// steppingClock returns the given instants in turn, then repeats the last.
func steppingClock(instants ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		now := instants[i]
		if i < len(instants)-1 {
			i++
		}
		return now
	}
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestChangeStoreAdd(t *testing.T) {
	s := openStore(t, newPackage(t, seeded), WithClock(steppingClock(epoch)))

	ev, err := s.Changes().Add(s.DB(), types.TagChange(types.OpInsert, *types.NewTag("rust", "Rust", "")))
	require.NoError(t, err)

	id, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, epoch, ev.Timestamp)
	assert.False(t, ev.Applied)
	assert.Positive(t, ev.Seq)

	got, err := s.Changes().Get(s.DB(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, *ev, *got)
}

func TestChangeStoreAddRejectsInvalidChange(t *testing.T) {
	s := openStore(t, newPackage(t, seeded))

	_, err := s.Changes().Add(s.DB(), types.Change{Operation: "upsert", Kind: types.KindTag, Tag: &types.Tag{ID: "x"}})
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	_, err = s.Changes().Add(s.DB(), types.Change{Operation: types.OpInsert, Kind: types.KindThing})
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
}

func TestChangeStoreTimestampsNeverGoBack(t *testing.T) {
	s := openStore(t, newPackage(t, seeded), WithClock(steppingClock(
		epoch.Add(10*time.Second),
		epoch,
		epoch,
		epoch.Add(15*time.Second),
	)))
	q := s.DB()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Tags().Add(q, *types.NewTag(id, "", "")))
	}

	events, err := s.Changes().List(q)
	require.NoError(t, err)
	require.Len(t, events, 4)

	order := make([]string, len(events))
	stamps := make([]time.Time, len(events))
	for i, ev := range events {
		order[i] = ev.Change.ID
		stamps[i] = ev.Timestamp
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order, "replay order follows recording order")
	assert.Equal(t, []time.Time{
		epoch.Add(10 * time.Second),
		epoch.Add(10 * time.Second),
		epoch.Add(10 * time.Second),
		epoch.Add(15 * time.Second),
	}, stamps)
}

func TestChangeStoreGeneratedColumns(t *testing.T) {
	s := openStore(t, newPackage(t, seeded))
	q := s.DB()

	require.NoError(t, s.ThingTags().Remove(q, types.ThingTag{ThingID: "https://go.dev", TagID: "web"}))

	var operation, kind, entity string
	require.NoError(t, q.QueryRow(
		"SELECT operation, kind, entity_id FROM staging.changelog",
	).Scan(&operation, &kind, &entity))
	assert.Equal(t, "delete", operation)
	assert.Equal(t, "thing_tag", kind)
	assert.Equal(t, "https://go.dev\tweb", entity)
}

func TestChangeStoreRemoveAndFlush(t *testing.T) {
	s := openStore(t, newPackage(t, seeded))
	q := s.DB()

	require.NoError(t, s.Tags().Add(q, *types.NewTag("a", "", "")))
	require.NoError(t, s.Tags().Add(q, *types.NewTag("b", "", "")))

	events, err := s.Changes().List(q)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.NoError(t, s.Changes().Remove(q, events[0].ID))
	assert.ErrorIs(t, s.Changes().Remove(q, events[0].ID), types.ErrNotFound)

	_, err = s.Changes().Get(q, events[0].ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	n, err := s.Changes().Len(q)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Changes().Flush(q))
	n, err = s.Changes().Len(q)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Tags().Get(q, "b")
	require.NoError(t, err, "flushing the changelog keeps staged rows")
}
