package sqlite

import (
	"errors"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Repository is the CRUD contract shared by the entity stores. Reads go
// through the overlay views; writes land in the staging ring together with
// a changelog event.
type Repository[E any, ID any] interface {
	// Get returns the entity with the given id, or ErrNotFound.
	Get(q Querier, id ID) (*E, error)

	// List returns every entity in the overlay.
	List(q Querier) ([]E, error)

	// Len counts the entities in the overlay.
	Len(q Querier) (int, error)

	// Add stages a new entity. Returns ErrDuplicate when the id is taken.
	Add(q Querier, e E) error

	// Remove stages the removal of the entity with the given id.
	Remove(q Querier, id ID) error

	// Replace stages a new version of an existing entity.
	Replace(q Querier, e E) error
}

var (
	_ Repository[types.Tag, string]              = (*TagStore)(nil)
	_ Repository[types.Thing, string]            = (*ThingStore)(nil)
	_ Repository[types.ThingTag, types.ThingTag] = (*ThingTagStore)(nil)
)

// IsEmpty reports whether the repository holds no entities.
func IsEmpty[E, ID any](r Repository[E, ID], q Querier) (bool, error) {
	n, err := r.Len(q)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Contains reports whether an entity with the given id exists.
func Contains[E, ID any](r Repository[E, ID], q Querier, id ID) (bool, error) {
	_, err := r.Get(q, id)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
