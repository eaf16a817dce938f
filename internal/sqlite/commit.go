// This file implements the commit pipeline: the changelog is replayed into
// the CSV files, then staging is cleared and the source ring reloaded.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// CommitReport describes the outcome of one Commit call.
type CommitReport struct {
	State types.FlushState
	// Applied counts the events replayed by this call.
	Applied int
	// Skipped counts events already replayed by an earlier interrupted call.
	Skipped int
}

// Commit drains the changelog into the CSV files.
//
// Events are replayed in timestamp order, ties broken by sequence. Each one
// is marked applied as soon as its file write succeeds, and every replay is
// idempotent, so a failed commit can be retried. The changelog and the
// staged rows are cleared only after all events succeed. An empty changelog
// leaves the files untouched.
func (s *Store) Commit() (*CommitReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrStoreClosed
	}

	report := &CommitReport{State: types.FlushPending}

	total, err := s.changes.Len(s.db)
	if err != nil {
		return report, err
	}
	if total == 0 {
		report.State = types.FlushFlushed
		s.logger.Debug("nothing to commit")
		return report, nil
	}

	events, err := s.changes.pending(s.db)
	if err != nil {
		return report, err
	}
	for _, ev := range events {
		if err := replayable(ev.Change); err != nil {
			return report, fmt.Errorf("event %s (%s): %w", ev.ID, ev.Change, err)
		}
	}

	report.State = types.FlushDraining
	report.Skipped = total - len(events)
	for _, ev := range events {
		if err := s.replay(ev.Change); err != nil {
			return report, fmt.Errorf("replaying event %s (%s): %w", ev.ID, ev.Change, err)
		}
		if err := s.changes.markApplied(s.db, ev.Seq); err != nil {
			return report, err
		}
		report.Applied++
		s.logger.Debug("replayed change", "event", ev.ID, "change", ev.Change.String())
	}

	err = s.Update(func(q Querier) error {
		if err := clearStaging(q); err != nil {
			return err
		}
		return s.changes.Flush(q)
	})
	if err != nil {
		return report, fmt.Errorf("clearing staging after commit: %w", err)
	}
	if err := s.loadSource(); err != nil {
		return report, fmt.Errorf("reloading source after commit: %w", err)
	}

	report.State = types.FlushFlushed
	s.logger.Info("committed staged changes", "applied", report.Applied, "skipped", report.Skipped)
	return report, nil
}

// replayable rejects events the pipeline cannot apply before any file is
// touched.
func replayable(c types.Change) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Kind == types.KindThingTag && c.Operation == types.OpReplace {
		return fmt.Errorf("%w: replace of thing_tag", types.ErrUnsupportedOperation)
	}
	return nil
}

// replay applies one change to the CSV files.
func (s *Store) replay(c types.Change) error {
	tagPath := s.pkg.ResourcePath(s.dir, types.TagTable)
	thingPath := s.pkg.ResourcePath(s.dir, types.ThingTable)
	thingTagPath := s.pkg.ResourcePath(s.dir, types.ThingTagTable)

	switch c.Kind {
	case types.KindTag:
		switch c.Operation {
		case types.OpInsert, types.OpReplace:
			return upsertCSV(tagPath, types.TagColumns, 1, [][]string{tagRecord(*c.Tag)})
		case types.OpDelete:
			id := c.Tag.ID
			if _, err := deleteCSV(tagPath, types.TagColumns, func(rec []string) bool { return keyValue(rec[0]) == id }); err != nil {
				return err
			}
			_, err := deleteCSV(thingTagPath, types.ThingTagColumns, func(rec []string) bool { return keyValue(rec[1]) == id })
			return err
		}

	case types.KindThing:
		url := c.Thing.URL
		switch c.Operation {
		case types.OpInsert, types.OpReplace:
			if err := upsertCSV(thingPath, types.ThingColumns, 1, [][]string{thingRecord(*c.Thing)}); err != nil {
				return err
			}
			if _, err := deleteCSV(thingTagPath, types.ThingTagColumns, func(rec []string) bool { return keyValue(rec[0]) == url }); err != nil {
				return err
			}
			return appendCSV(thingTagPath, types.ThingTagColumns, thingTagRecords(c.Thing.ThingTags()))
		case types.OpDelete:
			if _, err := deleteCSV(thingPath, types.ThingColumns, func(rec []string) bool { return keyValue(rec[0]) == url }); err != nil {
				return err
			}
			_, err := deleteCSV(thingTagPath, types.ThingTagColumns, func(rec []string) bool { return keyValue(rec[0]) == url })
			return err
		}

	case types.KindThingTag:
		tt := *c.ThingTag
		switch c.Operation {
		case types.OpInsert:
			return upsertCSV(thingTagPath, types.ThingTagColumns, 2, thingTagRecords([]types.ThingTag{tt}))
		case types.OpDelete:
			_, err := deleteCSV(thingTagPath, types.ThingTagColumns, func(rec []string) bool {
				return keyValue(rec[0]) == tt.ThingID && keyValue(rec[1]) == tt.TagID
			})
			return err
		}
	}
	return fmt.Errorf("%w: %s", types.ErrUnsupportedOperation, c)
}

func tagRecord(t types.Tag) []string {
	return []string{t.ID, types.StringValue(t.Name), types.StringValue(t.Summary)}
}

func thingRecord(t types.Thing) []string {
	return []string{t.URL, t.Name, types.StringValue(t.Summary), t.CategoryID}
}

func thingTagRecords(pairs []types.ThingTag) [][]string {
	records := make([][]string, len(pairs))
	for i, tt := range pairs {
		records[i] = []string{tt.ThingID, tt.TagID}
	}
	return records
}
