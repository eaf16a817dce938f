package types

import (
	"fmt"
	"sort"
	"strings"
)

// Thing is a curated resource identified by its URL. Tags holds the ids of
// the tags attached through thing_tag rows, sorted ascending.
type Thing struct {
	URL        string   `json:"url" yaml:"url"`
	Name       string   `json:"name" yaml:"name"`
	Summary    *string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	CategoryID string   `json:"category_id" yaml:"category_id"`
	Tags       []string `json:"tags" yaml:"tags"`
}

// Normalized validates the thing and returns a copy with normalized ids and
// a sorted, de-duplicated tag list. A blank name is rejected; any other
// name is kept as written.
func (t Thing) Normalized() (Thing, error) {
	u, err := ValidateURL(t.URL)
	if err != nil {
		return Thing{}, err
	}
	if strings.TrimSpace(t.Name) == "" {
		return Thing{}, ErrMissingName
	}
	cat, err := NormalizeID(t.CategoryID)
	if err != nil {
		return Thing{}, fmt.Errorf("thing category: %w", err)
	}
	tags, err := normalizeTags(t.Tags)
	if err != nil {
		return Thing{}, err
	}
	return Thing{
		URL:        u,
		Name:       t.Name,
		Summary:    normalizeOptional(t.Summary),
		CategoryID: cat,
		Tags:       tags,
	}, nil
}

// ThingTags expands the thing's tag list into thing_tag pairs.
func (t Thing) ThingTags() []ThingTag {
	pairs := make([]ThingTag, 0, len(t.Tags))
	for _, tag := range t.Tags {
		pairs = append(pairs, ThingTag{ThingID: t.URL, TagID: tag})
	}
	return pairs
}

func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		id, err := NormalizeID(tag)
		if err != nil {
			return nil, fmt.Errorf("thing tag: %w", err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// NewThingBuilder assembles a Thing field by field. Build fails when a
// required field is missing.
type NewThingBuilder struct {
	url        string
	name       string
	summary    *string
	categoryID string
	tags       []string
}

// NewThing starts a builder.
func NewThing() *NewThingBuilder {
	return &NewThingBuilder{}
}

func (b *NewThingBuilder) WithURL(url string) *NewThingBuilder {
	b.url = url
	return b
}

func (b *NewThingBuilder) WithName(name string) *NewThingBuilder {
	b.name = name
	return b
}

func (b *NewThingBuilder) WithSummary(summary string) *NewThingBuilder {
	b.summary = OptionalString(summary)
	return b
}

func (b *NewThingBuilder) WithCategory(categoryID string) *NewThingBuilder {
	b.categoryID = categoryID
	return b
}

// WithTags replaces the tag list.
func (b *NewThingBuilder) WithTags(tags []string) *NewThingBuilder {
	b.tags = append([]string(nil), tags...)
	return b
}

// WithTag appends one tag.
func (b *NewThingBuilder) WithTag(tag string) *NewThingBuilder {
	b.tags = append(b.tags, tag)
	return b
}

// Build checks the required fields in the order url, name, category and
// returns the first one missing. Values are normalized as in
// Thing.Normalized.
func (b *NewThingBuilder) Build() (*Thing, error) {
	if strings.TrimSpace(b.url) == "" {
		return nil, ErrMissingURL
	}
	if strings.TrimSpace(b.name) == "" {
		return nil, ErrMissingName
	}
	if strings.TrimSpace(b.categoryID) == "" {
		return nil, ErrMissingCategory
	}
	t, err := Thing{
		URL:        b.url,
		Name:       b.name,
		Summary:    b.summary,
		CategoryID: b.categoryID,
		Tags:       b.tags,
	}.Normalized()
	if err != nil {
		return nil, err
	}
	return &t, nil
}
