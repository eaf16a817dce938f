package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

func TestThingTagStore(t *testing.T) {
	goLang := types.ThingTag{ThingID: "https://go.dev", TagID: "lang"}
	goWeb := types.ThingTag{ThingID: "https://go.dev", TagID: "web"}

	tests := []struct {
		name  string
		check func(t *testing.T, s *Store)
	}{
		{
			name: "list returns source pairs ordered",
			check: func(t *testing.T, s *Store) {
				pairs, err := s.ThingTags().List(s.DB())
				require.NoError(t, err)
				assert.Equal(t, []types.ThingTag{
					{ThingID: "https://go.dev", TagID: "misc"},
					goWeb,
				}, pairs)
			},
		},
		{
			name: "add stages a new pair",
			check: func(t *testing.T, s *Store) {
				q := s.DB()
				require.NoError(t, s.ThingTags().Add(q, goLang))

				got, err := s.ThingTags().Get(q, goLang)
				require.NoError(t, err)
				assert.Equal(t, goLang, *got)

				thing, err := s.Things().Get(q, "https://go.dev")
				require.NoError(t, err)
				assert.Equal(t, []string{"lang", "misc", "web"}, thing.Tags)

				events, err := s.Changes().List(q)
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Equal(t, types.KindThingTag, events[0].Change.Kind)
				assert.Equal(t, "https://go.dev\tlang", events[0].Change.ID)
			},
		},
		{
			name: "add of an existing pair returns ErrDuplicate",
			check: func(t *testing.T, s *Store) {
				assert.ErrorIs(t, s.ThingTags().Add(s.DB(), goWeb), types.ErrDuplicate)
			},
		},
		{
			name: "add with an unknown thing returns ErrUnknownThing",
			check: func(t *testing.T, s *Store) {
				err := s.ThingTags().Add(s.DB(), types.ThingTag{ThingID: "https://nope.org", TagID: "web"})
				assert.ErrorIs(t, err, types.ErrUnknownThing)
			},
		},
		{
			name: "add with an unknown tag returns ErrUnknownTag",
			check: func(t *testing.T, s *Store) {
				err := s.ThingTags().Add(s.DB(), types.ThingTag{ThingID: "https://go.dev", TagID: "nope"})
				assert.ErrorIs(t, err, types.ErrUnknownTag)
			},
		},
		{
			name: "remove tombstones a source pair",
			check: func(t *testing.T, s *Store) {
				q := s.DB()
				require.NoError(t, s.ThingTags().Remove(q, goWeb))

				_, err := s.ThingTags().Get(q, goWeb)
				assert.ErrorIs(t, err, types.ErrNotFound)

				n, err := s.ThingTags().Len(q)
				require.NoError(t, err)
				assert.Equal(t, 1, n)

				require.NoError(t, s.ThingTags().Add(q, goWeb), "a removed pair can be added back")
				n, err = s.ThingTags().Len(q)
				require.NoError(t, err)
				assert.Equal(t, 2, n)
			},
		},
		{
			name: "remove of a missing pair returns ErrNotFound",
			check: func(t *testing.T, s *Store) {
				assert.ErrorIs(t, s.ThingTags().Remove(s.DB(), goLang), types.ErrNotFound)
			},
		},
		{
			name: "replace is unsupported",
			check: func(t *testing.T, s *Store) {
				assert.ErrorIs(t, s.ThingTags().Replace(s.DB(), goWeb), types.ErrUnsupportedOperation)

				n, err := s.Changes().Len(s.DB())
				require.NoError(t, err)
				assert.Zero(t, n)
			},
		},
		{
			name: "malformed keys are rejected",
			check: func(t *testing.T, s *Store) {
				_, err := s.ThingTags().Get(s.DB(), types.ThingTag{ThingID: "go.dev", TagID: "web"})
				assert.ErrorIs(t, err, types.ErrInvalidURL)
				_, err = s.ThingTags().Get(s.DB(), types.ThingTag{ThingID: "https://go.dev", TagID: ""})
				assert.ErrorIs(t, err, types.ErrInvalidID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t, newPackage(t, seeded))
			tt.check(t, s)
		})
	}
}
