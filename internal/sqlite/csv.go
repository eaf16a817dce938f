// This file implements CSV read and write helpers for the source ring:
// streaming reads with header checks, appends that preserve the existing
// bytes, and atomic rewrites.
package sqlite

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// CSVError is a structured failure to read a CSV resource. Line is 1-based;
// zero means the error is not tied to a line.
type CSVError struct {
	File string
	Line int
	Err  error
}

func (e *CSVError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *CSVError) Unwrap() error { return e.Err }

// readCSV streams the records of path to fn, after checking that the header
// equals columns. A missing or empty file yields no records. fn receives
// the 1-based line of each record.
func readCSV(path string, columns []string, fn func(line int, rec []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = len(columns)
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return parseError(path, err)
	}
	if !slices.Equal(header, columns) {
		return &CSVError{
			File: path,
			Line: 1,
			Err:  fmt.Errorf("%w: got %v, want %v", types.ErrHeaderMismatch, header, columns),
		}
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return parseError(path, err)
		}
		line, _ := r.FieldPos(0)
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

// parseError converts a csv.ParseError into a CSVError.
func parseError(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		// A header with the wrong number of fields fails the count check on
		// line 1.
		if errors.Is(pe.Err, csv.ErrFieldCount) && pe.StartLine == 1 {
			return &CSVError{File: path, Line: 1, Err: fmt.Errorf("%w: %v", types.ErrHeaderMismatch, pe.Err)}
		}
		return &CSVError{File: path, Line: pe.Line, Err: pe.Err}
	}
	return &CSVError{File: path, Err: err}
}

// readAllCSV returns every record of path below the header.
func readAllCSV(path string, columns []string) ([][]string, error) {
	var records [][]string
	err := readCSV(path, columns, func(_ int, rec []string) error {
		records = append(records, slices.Clone(rec))
		return nil
	})
	return records, err
}

// syncFile flushes f to stable storage. Tests replace it to simulate a
// failing disk.
var syncFile = (*os.File).Sync

// appendCSV appends records to path without touching existing bytes. A
// missing or empty file gets the header first; an unterminated last line is
// terminated before the new records. If the append fails, the file is
// truncated back to its previous size so no partial record is left behind.
func appendCSV(path string, columns []string, records [][]string) (err error) {
	if len(records) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()

	defer func() {
		if err == nil {
			return
		}
		if terr := f.Truncate(size); terr != nil {
			err = errors.Join(err, fmt.Errorf("truncating %s: %w", path, terr))
		}
	}()

	w := bufio.NewWriter(f)
	if size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("seeking %s: %w", path, err)
		}
		if last[0] != '\n' {
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("writing newline: %w", err)
			}
		}
	}

	cw := csv.NewWriter(w)
	if size == 0 {
		if err := cw.Write(columns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := syncFile(f); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return nil
}

// writeCSV atomically replaces path with the header and records using the
// temp-file, fsync, rename pattern.
func writeCSV(path string, columns []string, records [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".csv-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing records: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := syncFile(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// keyValue returns the normalized form of a key field as the loader stores
// it, or v unchanged when it is not a valid identifier.
func keyValue(v string) string {
	if n, err := types.NormalizeID(v); err == nil {
		return n
	}
	return v
}

// recordKey joins the normalized first n fields of rec into a lookup key.
func recordKey(rec []string, n int) string {
	key := make([]string, n)
	for i := range key {
		key[i] = keyValue(rec[i])
	}
	return strings.Join(key, "\t")
}

// upsertCSV writes records keyed on their first keyLen fields. Records whose
// key is new are appended; a record whose key exists replaces it in place,
// which rewrites the file.
func upsertCSV(path string, columns []string, keyLen int, records [][]string) error {
	existing, err := readAllCSV(path, columns)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(existing))
	for i, rec := range existing {
		index[recordKey(rec, keyLen)] = i
	}

	var appended [][]string
	rewrite := false
	for _, rec := range records {
		if i, ok := index[recordKey(rec, keyLen)]; ok {
			existing[i] = rec
			rewrite = true
			continue
		}
		index[recordKey(rec, keyLen)] = len(existing) + len(appended)
		appended = append(appended, rec)
	}

	if !rewrite {
		return appendCSV(path, columns, appended)
	}
	return writeCSV(path, columns, append(existing, appended...))
}

// deleteCSV removes the records matched by drop. The file is rewritten only
// when something matched.
func deleteCSV(path string, columns []string, drop func(rec []string) bool) (int, error) {
	existing, err := readAllCSV(path, columns)
	if err != nil {
		return 0, err
	}

	kept := existing[:0]
	for _, rec := range existing {
		if !drop(rec) {
			kept = append(kept, rec)
		}
	}
	removed := len(existing) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, writeCSV(path, columns, kept)
}
