// This file implements the thing_tag repository.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// ThingTagStore is the repository for thing-tag pairs. A pair is its own
// key, so there is nothing to replace.
type ThingTagStore struct {
	store *Store
}

const selectThingTags = "SELECT thing_id, tag_id FROM thing_tag"

// Get returns the pair if it is in the overlay.
func (ts *ThingTagStore) Get(q Querier, key types.ThingTag) (*types.ThingTag, error) {
	key, err := key.Normalized()
	if err != nil {
		return nil, err
	}

	var tt types.ThingTag
	err = q.QueryRow(
		selectThingTags+" WHERE thing_id = ? AND tag_id = ? ORDER BY ring = 'staging' DESC LIMIT 1",
		key.ThingID, key.TagID,
	).Scan(&tt.ThingID, &tt.TagID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting thing_tag %s: %w", key.Key(), err)
	}
	return &tt, nil
}

// List returns every pair ordered by thing, then tag.
func (ts *ThingTagStore) List(q Querier) ([]types.ThingTag, error) {
	rows, err := q.Query(selectThingTags + " ORDER BY thing_id, tag_id")
	if err != nil {
		return nil, fmt.Errorf("listing thing_tags: %w", err)
	}
	defer rows.Close()

	pairs := []types.ThingTag{}
	for rows.Next() {
		var tt types.ThingTag
		if err := rows.Scan(&tt.ThingID, &tt.TagID); err != nil {
			return nil, fmt.Errorf("hydrating thing_tag: %w", err)
		}
		pairs = append(pairs, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thing_tags: %w", err)
	}
	return pairs, nil
}

// Len counts the pairs in the overlay.
func (ts *ThingTagStore) Len(q Querier) (int, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM thing_tag").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting thing_tags: %w", err)
	}
	return n, nil
}

// Add stages a pair. Both the thing and the tag must exist.
func (ts *ThingTagStore) Add(q Querier, tt types.ThingTag) error {
	tt, err := tt.Normalized()
	if err != nil {
		return err
	}

	ok, err := thingExists(q, tt.ThingID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownThing, tt.ThingID)
	}
	if err := requireTags(q, []string{tt.TagID}); err != nil {
		return err
	}

	if _, err := ts.Get(q, tt); err == nil {
		return fmt.Errorf("adding thing_tag %s: %w", tt.Key(), types.ErrDuplicate)
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}

	if err := stageThingTags(q, []types.ThingTag{tt}); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.ThingTagChange(types.OpInsert, tt)); err != nil {
		return err
	}
	return nil
}

// Remove stages the removal of a pair.
func (ts *ThingTagStore) Remove(q Querier, key types.ThingTag) error {
	key, err := key.Normalized()
	if err != nil {
		return err
	}
	if _, err := ts.Get(q, key); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("removing thing_tag %s: %w", key.Key(), types.ErrNotFound)
		}
		return err
	}

	if _, err := q.Exec(
		"DELETE FROM staging.thing_tag WHERE thing_id = ? AND tag_id = ?", key.ThingID, key.TagID,
	); err != nil {
		return fmt.Errorf("deleting staged thing_tag %s: %w", key.Key(), err)
	}
	if err := tombstone(q, types.KindThingTag, key.Key()); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.ThingTagChange(types.OpDelete, key)); err != nil {
		return err
	}
	return nil
}

// Replace always fails: a pair has no payload beyond its key.
func (ts *ThingTagStore) Replace(q Querier, tt types.ThingTag) error {
	return fmt.Errorf("replacing thing_tag: %w", types.ErrUnsupportedOperation)
}
