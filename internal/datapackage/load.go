// This file implements descriptor loading and CUE schema validation.
package datapackage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Load reads dir/datapackage.json, validates it against the descriptor
// schema and decodes it. A missing file returns ErrMissingDescriptor; a
// descriptor that fails validation returns ErrInvalidDescriptor.
func Load(dir string) (*Package, error) {
	path := filepath.Join(dir, DescriptorFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingDescriptor, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse validates and decodes descriptor bytes. filename is used in
// validation messages only.
func Parse(raw []byte, filename string) (*Package, error) {
	if err := validate(raw, filename); err != nil {
		return nil, err
	}
	var pkg Package
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return &pkg, nil
}

// validate unifies the raw descriptor with the #Package definition and
// requires every field to be concrete.
func validate(raw []byte, filename string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling descriptor schema: %w", err)
	}

	v := ctx.CompileBytes(raw, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	def := schema.LookupPath(cue.ParsePath("#Package"))
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return nil
}
