// Package datapackage reads, validates and scaffolds the datapackage.json
// descriptor that describes a shelf package. The descriptor follows the
// Frictionless tabular data package layout with stricter requirements: id,
// name, title, description, created and at least one resource must be set.
package datapackage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// File layout of a package directory.
const (
	DescriptorFile = "datapackage.json"
	DataDir        = "data"
)

// Profiles accepted in descriptors.
const (
	PackageProfile  = "tabular-data-package"
	ResourceProfile = "tabular-data-resource"
	EncodingUTF8    = "UTF-8"
)

// Descriptor errors.
var (
	ErrMissingDescriptor = errors.New("datapackage.json not found")
	ErrInvalidDescriptor = errors.New("invalid datapackage.json")
	ErrMalformedName     = errors.New("name must only contain lowercase letters, digits, '.', '_', '-' or '/'")
	ErrRequiredField     = errors.New("required field is missing")
	ErrPackageExists     = errors.New("package already exists")
)

// Package is a tabular data package descriptor.
type Package struct {
	Profile      string        `json:"profile"`
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Created      time.Time     `json:"created"`
	Resources    []Resource    `json:"resources"`
	Licenses     []Licence     `json:"licenses,omitempty"`
	Homepage     string        `json:"homepage,omitempty"`
	Contributors []Contributor `json:"contributors,omitempty"`
	Keywords     []string      `json:"keywords,omitempty"`
}

// Resource describes one CSV file of the package.
type Resource struct {
	Profile     string `json:"profile"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Encoding    string `json:"encoding"`
	Schema      Schema `json:"schema"`
}

// Schema is a table schema.
type Schema struct {
	Fields      []Field      `json:"fields"`
	PrimaryKey  []string     `json:"primaryKey"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
}

// Field is one column of a table schema.
type Field struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Format      string       `json:"format,omitempty"`
	Constraints []Constraint `json:"constraints"`
}

type Constraint struct {
	Required bool `json:"required"`
	Unique   bool `json:"unique"`
}

type ForeignKey struct {
	Fields    []string  `json:"fields"`
	Reference Reference `json:"reference"`
}

type Reference struct {
	Resource string   `json:"resource"`
	Fields   []string `json:"fields"`
}

// Licence is an Open Definition licence under which the package is provided.
type Licence struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Contributor is a person or organisation involved in the package.
type Contributor struct {
	Title        string `json:"title"`
	Path         string `json:"path,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Role         Role   `json:"role"`
}

// Role is a contributor's part in producing the package.
type Role string

// Contributor roles.
const (
	RoleAuthor      Role = "author"
	RoleContributor Role = "contributor"
	RoleMaintainer  Role = "maintainer"
	RolePublisher   Role = "publisher"
	RoleWrangler    Role = "wrangler"
)

// FieldNames returns the column names of the resource in schema order.
func (r Resource) FieldNames() []string {
	names := make([]string, len(r.Schema.Fields))
	for i, f := range r.Schema.Fields {
		names[i] = f.Name
	}
	return names
}

// Resource looks up a resource by name.
func (p *Package) Resource(name string) (Resource, bool) {
	for _, r := range p.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// ResourcePath returns the absolute path of the named resource inside dir.
// A resource absent from the descriptor resolves to data/<name>.csv.
func (p *Package) ResourcePath(dir, name string) string {
	if r, ok := p.Resource(name); ok && r.Path != "" {
		return filepath.Join(dir, filepath.FromSlash(r.Path))
	}
	return filepath.Join(dir, DataDir, name+".csv")
}

// ValidateName checks that name is non-empty and only uses lowercase
// letters, digits, '.', '_', '-' and '/'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrMalformedName)
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-', c == '/':
		default:
			return fmt.Errorf("%w: %q", ErrMalformedName, name)
		}
	}
	return nil
}
