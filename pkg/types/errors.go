package types

import "errors"

// Lookup and validation errors.
var (
	ErrNotFound   = errors.New("entity not found")
	ErrInvalidID  = errors.New("invalid entity ID")
	ErrInvalidURL = errors.New("invalid thing URL")
)

// Builder errors. The messages name the missing field.
var (
	ErrMissingURL      = errors.New("'url' is a required field")
	ErrMissingName     = errors.New("'name' is a required field")
	ErrMissingCategory = errors.New("'category' is a required field")
)

// Uniqueness and referential errors.
var (
	ErrDuplicate       = errors.New("entity already exists")
	ErrUnknownCategory = errors.New("category does not reference an existing tag")
	ErrUnknownTag      = errors.New("tag does not exist")
	ErrUnknownThing    = errors.New("thing does not exist")
	ErrTagInUse        = errors.New("tag is used as a category")
)

// Storage errors.
var (
	ErrHeaderMismatch = errors.New("csv header does not match resource columns")
	ErrStoreClosed    = errors.New("store is closed")
)

// ErrUnsupportedOperation is returned for operations a repository or the
// commit pipeline cannot perform, such as replacing a thing-tag pair.
var ErrUnsupportedOperation = errors.New("unsupported operation")
