// This file implements the tag repository over the overlay views.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// TagStore is the repository for tags.
type TagStore struct {
	store *Store
}

const selectTags = "SELECT id, name, summary FROM tag"

// Get retrieves a tag by id. A staged row wins over a source row.
func (ts *TagStore) Get(q Querier, id string) (*types.Tag, error) {
	id, err := types.NormalizeID(id)
	if err != nil {
		return nil, err
	}

	tag, err := hydrateTag(q.QueryRow(
		selectTags+" WHERE id = ? ORDER BY ring = 'staging' DESC LIMIT 1", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting tag %s: %w", id, err)
	}
	return tag, nil
}

// List returns every tag ordered by id.
func (ts *TagStore) List(q Querier) ([]types.Tag, error) {
	return queryTags(q, selectTags+" ORDER BY id")
}

// Len counts the tags in the overlay.
func (ts *TagStore) Len(q Querier) (int, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM tag").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tags: %w", err)
	}
	return n, nil
}

// Add stages a new tag. Returns ErrDuplicate if the id already resolves.
func (ts *TagStore) Add(q Querier, tag types.Tag) error {
	tag, err := tag.Normalized()
	if err != nil {
		return err
	}

	ok, err := tagExists(q, tag.ID)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("adding tag %s: %w", tag.ID, types.ErrDuplicate)
	}

	if err := ts.stage(q, tag); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.TagChange(types.OpInsert, tag)); err != nil {
		return err
	}
	return nil
}

// Replace stages a new version of an existing tag.
func (ts *TagStore) Replace(q Querier, tag types.Tag) error {
	tag, err := tag.Normalized()
	if err != nil {
		return err
	}

	ok, err := tagExists(q, tag.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("replacing tag %s: %w", tag.ID, types.ErrNotFound)
	}

	if err := ts.stage(q, tag); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.TagChange(types.OpReplace, tag)); err != nil {
		return err
	}
	return nil
}

// Remove stages the removal of a tag and of every thing_tag row that uses
// it. A tag that is still some thing's category cannot be removed.
func (ts *TagStore) Remove(q Querier, id string) error {
	id, err := types.NormalizeID(id)
	if err != nil {
		return err
	}

	ok, err := tagExists(q, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("removing tag %s: %w", id, types.ErrNotFound)
	}

	inUse, err := exists(q, "SELECT 1 FROM thing WHERE category_id = ? LIMIT 1", id)
	if err != nil {
		return fmt.Errorf("checking category use of %s: %w", id, err)
	}
	if inUse {
		return fmt.Errorf("removing tag %s: %w", id, types.ErrTagInUse)
	}

	if _, err := q.Exec("DELETE FROM staging.tag WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting staged tag %s: %w", id, err)
	}
	if err := tombstone(q, types.KindTag, id); err != nil {
		return err
	}
	if err := dropThingTags(q, byTag, id); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.TagChange(types.OpDelete, types.Tag{ID: id})); err != nil {
		return err
	}
	return nil
}

// ListCategories returns the tags used as the category of at least one
// thing, ordered by id.
func (ts *TagStore) ListCategories(q Querier) ([]types.Tag, error) {
	return queryTags(q,
		selectTags+" t WHERE EXISTS (SELECT 1 FROM thing h WHERE h.category_id = t.id) ORDER BY id",
	)
}

// ListWithout returns every tag whose id is not in excluded, ordered by id.
// Each excluded id is validated and bound as its own parameter.
func (ts *TagStore) ListWithout(q Querier, excluded []string) ([]types.Tag, error) {
	if len(excluded) == 0 {
		return ts.List(q)
	}

	args := make([]any, len(excluded))
	for i, id := range excluded {
		n, err := types.NormalizeID(id)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	return queryTags(q, selectTags+" WHERE id NOT IN ("+placeholders+") ORDER BY id", args...)
}

// stage upserts the tag into staging and lifts any tombstone on it.
func (ts *TagStore) stage(q Querier, tag types.Tag) error {
	_, err := q.Exec(
		`INSERT INTO staging.tag (id, name, summary) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, summary = excluded.summary`,
		tag.ID, types.StringValue(tag.Name), types.StringValue(tag.Summary),
	)
	if err != nil {
		return fmt.Errorf("staging tag %s: %w", tag.ID, err)
	}
	return untombstone(q, types.KindTag, tag.ID)
}

func queryTags(q Querier, query string, args ...any) ([]types.Tag, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	tags := []types.Tag{}
	for rows.Next() {
		tag, err := hydrateTag(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating tag: %w", err)
		}
		tags = append(tags, *tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

func hydrateTag(row scanner) (*types.Tag, error) {
	var (
		t             types.Tag
		name, summary sql.NullString
	)
	if err := row.Scan(&t.ID, &name, &summary); err != nil {
		return nil, err
	}
	t.Name = nullString(name)
	t.Summary = nullString(summary)
	return &t, nil
}

// nullString maps a NULL column to nil.
func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
