// This file implements built-in tag seeding for new packages.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// builtInTag describes a tag seeded into an empty package.
type builtInTag struct {
	id      string
	name    string
	summary string
}

// builtInTags are the tags every package starts with. The default category
// is among them so a thing can always be filed somewhere.
var builtInTags = []builtInTag{
	{
		id:      types.DefaultCategory,
		name:    "Miscellaneous",
		summary: "Things without a better category",
	},
}

// Seed stages and commits the built-in tags when the package has no tags
// at all. It reports how many tags were written. Seeding is idempotent: a
// package with any tag is left alone.
func (s *Store) Seed() (int, error) {
	n, err := s.tags.Len(s.db)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	err = s.Update(func(q Querier) error {
		for _, bt := range builtInTags {
			if err := s.tags.Add(q, *types.NewTag(bt.id, bt.name, bt.summary)); err != nil {
				return fmt.Errorf("seeding tag %s: %w", bt.id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if _, err := s.Commit(); err != nil {
		return 0, fmt.Errorf("persisting seeded tags: %w", err)
	}
	s.logger.Info("seeded built-in tags", "count", len(builtInTags))
	return len(builtInTags), nil
}
