package types

import "fmt"

// ThingTag associates a thing with a tag. The pair is its own key.
type ThingTag struct {
	ThingID string `json:"thing_id" yaml:"thing_id"`
	TagID   string `json:"tag_id" yaml:"tag_id"`
}

// Normalized returns a copy with both sides normalized.
func (tt ThingTag) Normalized() (ThingTag, error) {
	thingID, err := ValidateURL(tt.ThingID)
	if err != nil {
		return ThingTag{}, fmt.Errorf("thing_tag thing_id: %w", err)
	}
	tagID, err := NormalizeID(tt.TagID)
	if err != nil {
		return ThingTag{}, fmt.Errorf("thing_tag tag_id: %w", err)
	}
	return ThingTag{ThingID: thingID, TagID: tagID}, nil
}

// Key renders the pair as a single changelog id. Identifiers never contain
// control characters, so the tab separator is unambiguous.
func (tt ThingTag) Key() string {
	return tt.ThingID + "\t" + tt.TagID
}
