// This file implements the source ring loader: each CSV resource is
// streamed into its relation in the source schema.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// loadSource empties the source ring and refills it from the CSV files in a
// single transaction. Rows go straight from the reader into a prepared
// insert. A key that appears twice in one file is reported as a CSVError
// wrapping ErrDuplicate.
func (s *Store) loadSource() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range types.StandardTableNames {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s.%s", sourceSchema, table)); err != nil {
			return fmt.Errorf("clearing source %s: %w", table, err)
		}

		path := s.pkg.ResourcePath(s.dir, table)
		n, err := loadCSV(tx, path, table, types.ColumnsFor(table))
		if err != nil {
			return fmt.Errorf("loading %s: %w", table, err)
		}
		s.logger.Debug("loaded source relation", "table", table, "path", path, "rows", n)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// keyRules maps each table's identifier columns to the check the
// repositories apply to the same values. Loaded ids are stored normalized so
// that every repository call can reach them.
var keyRules = map[string]map[int]func(string) (string, error){
	types.TagTable:      {0: types.NormalizeID},
	types.ThingTable:    {0: types.ValidateURL, 3: types.NormalizeID},
	types.ThingTagTable: {0: types.ValidateURL, 1: types.NormalizeID},
}

// loadCSV streams one CSV file into source.<table> and returns the row count.
// Identifier columns are normalized; an invalid one is a CSVError.
func loadCSV(tx *sql.Tx, path, table string, columns []string) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s.%s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		sourceSchema, table, strings.Join(columns, ", "), placeholders,
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	n := 0
	args := make([]any, len(columns))
	err = readCSV(path, columns, func(line int, rec []string) error {
		for i, v := range rec {
			if rule, ok := keyRules[table][i]; ok {
				n, err := rule(v)
				if err != nil {
					return &CSVError{File: path, Line: line, Err: fmt.Errorf("column %s: %w", columns[i], err)}
				}
				v = n
			}
			args[i] = v
		}
		res, err := stmt.Exec(args...)
		if err != nil {
			return &CSVError{File: path, Line: line, Err: err}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return &CSVError{File: path, Line: line, Err: err}
		}
		if affected == 0 {
			return &CSVError{File: path, Line: line, Err: fmt.Errorf("%w: key %q repeats an earlier row", types.ErrDuplicate, args[0])}
		}
		n++
		return nil
	})
	return n, err
}

// Reload re-reads the CSV files into the source ring. Staged rows are kept.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	return s.loadSource()
}
