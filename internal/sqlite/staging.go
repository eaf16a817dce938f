// This file implements the staging ring primitives shared by the
// repositories: tombstones, cascades and the existence checks they run
// against the overlay.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// tombstone hides the source row of kind with the given key.
func tombstone(q Querier, kind types.Kind, id string) error {
	_, err := q.Exec(
		"INSERT INTO staging.tombstone (kind, id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		string(kind), id,
	)
	if err != nil {
		return fmt.Errorf("tombstoning %s %s: %w", kind, id, err)
	}
	return nil
}

// untombstone makes a source row visible again, if it was hidden.
func untombstone(q Querier, kind types.Kind, id string) error {
	_, err := q.Exec("DELETE FROM staging.tombstone WHERE kind = ? AND id = ?", string(kind), id)
	if err != nil {
		return fmt.Errorf("clearing tombstone %s %s: %w", kind, id, err)
	}
	return nil
}

// thingTagColumn is a thing_tag column a cascade can match on.
type thingTagColumn string

const (
	byThing thingTagColumn = "thing_id"
	byTag   thingTagColumn = "tag_id"
)

// dropThingTags removes every thing_tag row whose column equals value from
// the overlay: staged rows are deleted and source rows are tombstoned.
func dropThingTags(q Querier, col thingTagColumn, value string) error {
	if _, err := q.Exec(
		fmt.Sprintf("DELETE FROM staging.thing_tag WHERE %s = ?", col), value,
	); err != nil {
		return fmt.Errorf("deleting staged thing_tag rows: %w", err)
	}
	if _, err := q.Exec(
		fmt.Sprintf(`INSERT OR IGNORE INTO staging.tombstone (kind, id)
SELECT 'thing_tag', thing_id || char(9) || tag_id FROM source.thing_tag WHERE %s = ?`, col),
		value,
	); err != nil {
		return fmt.Errorf("tombstoning source thing_tag rows: %w", err)
	}
	return nil
}

// stageThingTags writes the pairs to staging and lifts any tombstone on them.
func stageThingTags(q Querier, pairs []types.ThingTag) error {
	for _, tt := range pairs {
		if _, err := q.Exec(
			"INSERT INTO staging.thing_tag (thing_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			tt.ThingID, tt.TagID,
		); err != nil {
			return fmt.Errorf("staging thing_tag %s: %w", tt.Key(), err)
		}
		if err := untombstone(q, types.KindThingTag, tt.Key()); err != nil {
			return err
		}
	}
	return nil
}

// exists reports whether query returns at least one row.
func exists(q Querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func tagExists(q Querier, id string) (bool, error) {
	ok, err := exists(q, "SELECT 1 FROM tag WHERE id = ? LIMIT 1", id)
	if err != nil {
		return false, fmt.Errorf("checking tag %s: %w", id, err)
	}
	return ok, nil
}

func thingExists(q Querier, url string) (bool, error) {
	ok, err := exists(q, "SELECT 1 FROM thing WHERE url = ? LIMIT 1", url)
	if err != nil {
		return false, fmt.Errorf("checking thing %s: %w", url, err)
	}
	return ok, nil
}

// requireTags checks that every id resolves to a tag in the overlay.
func requireTags(q Querier, ids []string) error {
	for _, id := range ids {
		ok, err := tagExists(q, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrUnknownTag, id)
		}
	}
	return nil
}

// stagingTables lists the staging relations cleared after a commit or a
// discard, changelog excluded.
var stagingTables = []string{"tag", "thing", "thing_tag", "tombstone"}

// clearStaging empties the staged rows and tombstones.
func clearStaging(q Querier) error {
	for _, table := range stagingTables {
		if _, err := q.Exec(fmt.Sprintf("DELETE FROM %s.%s", stagingSchema, table)); err != nil {
			return fmt.Errorf("clearing staging %s: %w", table, err)
		}
	}
	return nil
}

// Discard drops all staged rows and the changelog without touching the CSV
// files.
func (s *Store) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	err := s.Update(func(q Querier) error {
		if err := clearStaging(q); err != nil {
			return err
		}
		return s.changes.Flush(q)
	})
	if err != nil {
		return fmt.Errorf("discarding staged changes: %w", err)
	}
	s.logger.Info("discarded staged changes")
	return nil
}
