// This file implements the changelog accessor.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// ChangeStore reads and appends changelog events in the staging ring.
type ChangeStore struct {
	store *Store
}

const selectEvents = "SELECT seq, event_id, timestamp, applied, data FROM staging.changelog"

// Add appends one event for c and returns it. The timestamp never precedes
// the latest one already recorded. It fails only on an invalid change, an
// encoding failure or an engine error.
func (cs *ChangeStore) Add(q Querier, c types.Change) (*types.Event, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	data, err := types.MarshalChange(c)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating UUID v7: %w", err)
	}
	// Replay follows timestamp order, so a clock that stepped back since the
	// last event must not place this one ahead of it.
	var latest int64
	if err := q.QueryRow("SELECT COALESCE(MAX(timestamp), 0) FROM staging.changelog").Scan(&latest); err != nil {
		return nil, fmt.Errorf("reading latest changelog timestamp: %w", err)
	}
	ts := max(cs.store.now().UTC().UnixMilli(), latest)

	res, err := q.Exec(
		"INSERT INTO staging.changelog (event_id, timestamp, data) VALUES (?, ?, ?)",
		id.String(), ts, string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", c, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading changelog sequence: %w", err)
	}

	cs.store.logger.Debug("recorded change", "event", id.String(), "change", c.String())
	return &types.Event{
		Seq:       seq,
		ID:        id.String(),
		Timestamp: time.UnixMilli(ts).UTC(),
		Change:    c,
	}, nil
}

// Get returns the event with the given id, or ErrNotFound.
func (cs *ChangeStore) Get(q Querier, id string) (*types.Event, error) {
	ev, err := scanEvent(q.QueryRow(selectEvents+" WHERE event_id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting event %s: %w", id, err)
	}
	return ev, nil
}

// List returns every event in replay order: timestamp, then sequence.
func (cs *ChangeStore) List(q Querier) ([]types.Event, error) {
	return queryEvents(q, selectEvents+" ORDER BY timestamp ASC, seq ASC")
}

// pending returns the events not yet applied by a commit, in replay order.
func (cs *ChangeStore) pending(q Querier) ([]types.Event, error) {
	return queryEvents(q, selectEvents+" WHERE applied = 0 ORDER BY timestamp ASC, seq ASC")
}

// Len counts the events in the changelog.
func (cs *ChangeStore) Len(q Querier) (int, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM staging.changelog").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting changelog: %w", err)
	}
	return n, nil
}

// Remove deletes one event. Staged rows are left as they are.
func (cs *ChangeStore) Remove(q Querier, id string) error {
	res, err := q.Exec("DELETE FROM staging.changelog WHERE event_id = ?", id)
	if err != nil {
		return fmt.Errorf("removing event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing event %s: %w", id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Flush empties the changelog.
func (cs *ChangeStore) Flush(q Querier) error {
	if _, err := q.Exec("DELETE FROM staging.changelog"); err != nil {
		return fmt.Errorf("flushing changelog: %w", err)
	}
	return nil
}

// markApplied flags an event as replayed into the CSV files.
func (cs *ChangeStore) markApplied(q Querier, seq int64) error {
	if _, err := q.Exec("UPDATE staging.changelog SET applied = 1 WHERE seq = ?", seq); err != nil {
		return fmt.Errorf("marking event %d applied: %w", seq, err)
	}
	return nil
}

func queryEvents(q Querier, query string, args ...any) ([]types.Event, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing changelog: %w", err)
	}
	defer rows.Close()

	events := []types.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating changelog: %w", err)
	}
	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*types.Event, error) {
	var (
		ev      types.Event
		ts      int64
		applied int
		data    string
	)
	if err := row.Scan(&ev.Seq, &ev.ID, &ts, &applied, &data); err != nil {
		return nil, err
	}
	c, err := types.UnmarshalChange([]byte(data))
	if err != nil {
		return nil, err
	}
	ev.Timestamp = time.UnixMilli(ts).UTC()
	ev.Applied = applied != 0
	ev.Change = c
	return &ev, nil
}
