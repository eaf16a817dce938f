package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

func TestSeed(t *testing.T) {
	tests := []struct {
		name    string
		fixture fixture
		want    int
		check   func(t *testing.T, s *Store, dir string)
	}{
		{
			name: "seeds the default category into an empty package",
			want: 1,
			check: func(t *testing.T, s *Store, dir string) {
				tag, err := s.Tags().Get(s.DB(), types.DefaultCategory)
				require.NoError(t, err)
				assert.Equal(t, "Miscellaneous", *tag.Name)

				assert.Equal(t,
					"id,name,summary\nmiscellaneous,Miscellaneous,Things without a better category\n",
					readCSVFile(t, dir, "tag.csv"))

				n, err := s.Changes().Len(s.DB())
				require.NoError(t, err)
				assert.Zero(t, n)
			},
		},
		{
			name:    "leaves a package with tags alone",
			fixture: seeded,
			want:    0,
			check: func(t *testing.T, s *Store, dir string) {
				_, err := s.Tags().Get(s.DB(), types.DefaultCategory)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newPackage(t, tt.fixture)
			s := openStore(t, dir)

			n, err := s.Seed()
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			tt.check(t, s, dir)

			again, err := s.Seed()
			require.NoError(t, err)
			assert.Zero(t, again)
		})
	}
}
