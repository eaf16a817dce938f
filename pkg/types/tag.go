package types

import "fmt"

// Tag labels things. A tag also serves as a thing's category.
type Tag struct {
	ID      string  `json:"id" yaml:"id"`
	Name    *string `json:"name,omitempty" yaml:"name,omitempty"`
	Summary *string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// NewTag builds a tag from plain strings. Empty name and summary become nil.
func NewTag(id, name, summary string) *Tag {
	return &Tag{
		ID:      id,
		Name:    OptionalString(name),
		Summary: OptionalString(summary),
	}
}

// Normalized returns a copy of the tag with a normalized id and the
// empty-string convention applied to the optional fields.
func (t Tag) Normalized() (Tag, error) {
	id, err := NormalizeID(t.ID)
	if err != nil {
		return Tag{}, fmt.Errorf("tag id: %w", err)
	}
	return Tag{
		ID:      id,
		Name:    normalizeOptional(t.Name),
		Summary: normalizeOptional(t.Summary),
	}, nil
}
