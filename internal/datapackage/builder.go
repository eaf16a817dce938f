package datapackage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Builder assembles a Package. Errors are collected and reported by Build.
type Builder struct {
	pkg Package
	err error
}

// NewBuilder starts a package with the given name.
func NewBuilder(name string) *Builder {
	b := &Builder{pkg: Package{Profile: PackageProfile, Name: name}}
	if err := ValidateName(name); err != nil {
		b.err = err
	}
	return b
}

// ID sets a custom identifier. Build generates a UUID v4 when none is set.
func (b *Builder) ID(id string) *Builder {
	b.pkg.ID = id
	return b
}

func (b *Builder) Title(title string) *Builder {
	b.pkg.Title = title
	return b
}

func (b *Builder) Description(description string) *Builder {
	b.pkg.Description = description
	return b
}

func (b *Builder) Homepage(url string) *Builder {
	b.pkg.Homepage = url
	return b
}

// Created sets the creation time. Build uses the current time otherwise.
func (b *Builder) Created(t time.Time) *Builder {
	b.pkg.Created = t.UTC()
	return b
}

func (b *Builder) Licence(l Licence) *Builder {
	b.pkg.Licenses = append(b.pkg.Licenses, l)
	return b
}

// Contributor adds a contributor. An empty role becomes RoleContributor.
func (b *Builder) Contributor(c Contributor) *Builder {
	if c.Role == "" {
		c.Role = RoleContributor
	}
	b.pkg.Contributors = append(b.pkg.Contributors, c)
	return b
}

func (b *Builder) Keywords(keywords ...string) *Builder {
	b.pkg.Keywords = append(b.pkg.Keywords, keywords...)
	return b
}

func (b *Builder) Resources(resources ...Resource) *Builder {
	b.pkg.Resources = append(b.pkg.Resources, resources...)
	return b
}

// Build returns the package or the first error found. Missing title,
// description or resources return ErrRequiredField.
func (b *Builder) Build() (*Package, error) {
	if b.err != nil {
		return nil, b.err
	}
	switch {
	case b.pkg.Title == "":
		return nil, fmt.Errorf("%w: title", ErrRequiredField)
	case b.pkg.Description == "":
		return nil, fmt.Errorf("%w: description", ErrRequiredField)
	case len(b.pkg.Resources) == 0:
		return nil, fmt.Errorf("%w: resources", ErrRequiredField)
	}

	pkg := b.pkg
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	if pkg.Created.IsZero() {
		pkg.Created = time.Now().UTC().Truncate(time.Second)
	}
	return &pkg, nil
}
