// Package types defines the entity model, the repository errors, the
// changelog records and the configuration for the shelf storage engine.
//
// Entities are plain values. A Tag is keyed by its id, a Thing by its URL and
// a ThingTag by the (thing, tag) pair. Optional text fields are *string and
// follow one convention at every boundary: an empty or blank string is nil.
package types
