// This file implements the thing repository. A thing's tags are resolved
// from the thing_tag overlay and written together with the thing.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// ThingStore is the repository for things.
type ThingStore struct {
	store *Store
}

// tagSeparator joins tag ids inside one column. Ids never contain control
// characters.
const tagSeparator = "\x1f"

const selectThings = `SELECT t.url, t.name, t.summary, t.category_id,
    (SELECT group_concat(tt.tag_id, char(31)) FROM thing_tag tt WHERE tt.thing_id = t.url) AS tags
FROM thing t`

// Get retrieves a thing by URL with its tags. A staged row wins over a
// source row.
func (ts *ThingStore) Get(q Querier, url string) (*types.Thing, error) {
	url, err := types.ValidateURL(url)
	if err != nil {
		return nil, err
	}

	thing, err := hydrateThing(q.QueryRow(
		selectThings+" WHERE t.url = ? ORDER BY t.ring = 'staging' DESC LIMIT 1", url,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting thing %s: %w", url, err)
	}
	return thing, nil
}

// List returns every thing ordered by URL.
func (ts *ThingStore) List(q Querier) ([]types.Thing, error) {
	return queryThings(q, selectThings+" ORDER BY t.url")
}

// ListCategorised returns the things of one category ordered by URL.
func (ts *ThingStore) ListCategorised(q Querier, categoryID string) ([]types.Thing, error) {
	categoryID, err := types.NormalizeID(categoryID)
	if err != nil {
		return nil, err
	}
	return queryThings(q, selectThings+" WHERE t.category_id = ? ORDER BY t.url", categoryID)
}

// Len counts the things in the overlay.
func (ts *ThingStore) Len(q Querier) (int, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM thing").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting things: %w", err)
	}
	return n, nil
}

// Add stages a new thing and its tags. The category and every tag must
// already exist. Run it inside Store.Update to make the thing and its
// thing_tag rows one atomic write.
func (ts *ThingStore) Add(q Querier, thing types.Thing) error {
	thing, err := thing.Normalized()
	if err != nil {
		return err
	}

	ok, err := thingExists(q, thing.URL)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("adding thing %s: %w", thing.URL, types.ErrDuplicate)
	}
	if err := checkThingRefs(q, thing); err != nil {
		return err
	}

	if err := ts.stage(q, thing); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.ThingChange(types.OpInsert, thing)); err != nil {
		return err
	}
	return nil
}

// Replace stages a new version of an existing thing. The new tag list
// replaces the old one.
func (ts *ThingStore) Replace(q Querier, thing types.Thing) error {
	thing, err := thing.Normalized()
	if err != nil {
		return err
	}

	ok, err := thingExists(q, thing.URL)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("replacing thing %s: %w", thing.URL, types.ErrNotFound)
	}
	if err := checkThingRefs(q, thing); err != nil {
		return err
	}

	if err := ts.stage(q, thing); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.ThingChange(types.OpReplace, thing)); err != nil {
		return err
	}
	return nil
}

// Remove stages the removal of a thing and of all its thing_tag rows.
func (ts *ThingStore) Remove(q Querier, url string) error {
	url, err := types.ValidateURL(url)
	if err != nil {
		return err
	}

	ok, err := thingExists(q, url)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("removing thing %s: %w", url, types.ErrNotFound)
	}

	if _, err := q.Exec("DELETE FROM staging.thing WHERE url = ?", url); err != nil {
		return fmt.Errorf("deleting staged thing %s: %w", url, err)
	}
	if err := tombstone(q, types.KindThing, url); err != nil {
		return err
	}
	if err := dropThingTags(q, byThing, url); err != nil {
		return err
	}
	if _, err := ts.store.changes.Add(q, types.ThingChange(types.OpDelete, types.Thing{URL: url})); err != nil {
		return err
	}
	return nil
}

// stage upserts the thing row and makes its tag list the only thing_tag
// rows for its URL.
func (ts *ThingStore) stage(q Querier, thing types.Thing) error {
	_, err := q.Exec(
		`INSERT INTO staging.thing (url, name, summary, category_id) VALUES (?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET name = excluded.name, summary = excluded.summary, category_id = excluded.category_id`,
		thing.URL, thing.Name, types.StringValue(thing.Summary), thing.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("staging thing %s: %w", thing.URL, err)
	}
	if err := untombstone(q, types.KindThing, thing.URL); err != nil {
		return err
	}
	if err := dropThingTags(q, byThing, thing.URL); err != nil {
		return err
	}
	return stageThingTags(q, thing.ThingTags())
}

// checkThingRefs validates the category and tags of a thing against the
// overlay.
func checkThingRefs(q Querier, thing types.Thing) error {
	ok, err := tagExists(q, thing.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownCategory, thing.CategoryID)
	}
	return requireTags(q, thing.Tags)
}

func queryThings(q Querier, query string, args ...any) ([]types.Thing, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing things: %w", err)
	}
	defer rows.Close()

	things := []types.Thing{}
	for rows.Next() {
		thing, err := hydrateThing(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating thing: %w", err)
		}
		things = append(things, *thing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating things: %w", err)
	}
	return things, nil
}

func hydrateThing(row scanner) (*types.Thing, error) {
	var (
		t             types.Thing
		summary, tags sql.NullString
	)
	if err := row.Scan(&t.URL, &t.Name, &summary, &t.CategoryID, &tags); err != nil {
		return nil, err
	}
	t.Summary = nullString(summary)
	t.Tags = []string{}
	if tags.Valid && tags.String != "" {
		t.Tags = strings.Split(tags.String, tagSeparator)
		sort.Strings(t.Tags)
	}
	return &t, nil
}
