// This file implements package scaffolding: the descriptor plus one
// header-only CSV file per resource.
package datapackage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Scaffold writes pkg as dir/datapackage.json and creates each resource file
// with its header row. Existing CSV files are left untouched. Scaffolding a
// directory that already has a descriptor returns ErrPackageExists.
func Scaffold(dir string, pkg *Package) error {
	descriptor := filepath.Join(dir, DescriptorFile)
	if _, err := os.Stat(descriptor); err == nil {
		return fmt.Errorf("%w: %s", ErrPackageExists, descriptor)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", descriptor, err)
	}

	if err := os.MkdirAll(filepath.Join(dir, DataDir), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	for _, r := range pkg.Resources {
		if err := writeHeader(pkg.ResourcePath(dir, r.Name), r.FieldNames()); err != nil {
			return fmt.Errorf("scaffolding %s: %w", r.Name, err)
		}
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling descriptor: %w", err)
	}
	data = append(data, '\n')
	return writeFileAtomic(descriptor, data)
}

// writeHeader creates path with a single header record. An existing file is
// kept as is.
func writeHeader(path string, header []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing header: %w", err)
	}
	return f.Close()
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".datapackage-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing descriptor: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
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
