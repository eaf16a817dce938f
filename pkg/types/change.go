package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the kind of mutation a changelog event records.
type Operation string

// Changelog operations.
const (
	OpInsert  Operation = "insert"
	OpReplace Operation = "replace"
	OpDelete  Operation = "delete"
)

// Kind names the entity an event touches. Values match the table names.
type Kind string

// Changelog entity kinds.
const (
	KindTag      Kind = TagTable
	KindThing    Kind = ThingTable
	KindThingTag Kind = ThingTagTable
)

// Change is one staged mutation. Exactly one of Tag, Thing and ThingTag is
// set and it matches Kind. For deletes the payload carries only the key.
type Change struct {
	Operation Operation `json:"operation" yaml:"operation"`
	Kind      Kind      `json:"kind" yaml:"kind"`
	ID        string    `json:"id" yaml:"id"`
	Tag       *Tag      `json:"tag,omitempty" yaml:"tag,omitempty"`
	Thing     *Thing    `json:"thing,omitempty" yaml:"thing,omitempty"`
	ThingTag  *ThingTag `json:"thing_tag,omitempty" yaml:"thing_tag,omitempty"`
}

// TagChange records op on a tag.
func TagChange(op Operation, t Tag) Change {
	return Change{Operation: op, Kind: KindTag, ID: t.ID, Tag: &t}
}

// ThingChange records op on a thing, including its tag list.
func ThingChange(op Operation, t Thing) Change {
	return Change{Operation: op, Kind: KindThing, ID: t.URL, Thing: &t}
}

// ThingTagChange records op on a thing-tag pair.
func ThingTagChange(op Operation, tt ThingTag) Change {
	return Change{Operation: op, Kind: KindThingTag, ID: tt.Key(), ThingTag: &tt}
}

// Validate checks that the operation is known and that the payload matches
// the kind. Unknown combinations return ErrUnsupportedOperation.
func (c Change) Validate() error {
	switch c.Operation {
	case OpInsert, OpReplace, OpDelete:
	default:
		return fmt.Errorf("%w: operation %q", ErrUnsupportedOperation, c.Operation)
	}
	switch c.Kind {
	case KindTag:
		if c.Tag == nil {
			return fmt.Errorf("%w: tag change without tag payload", ErrUnsupportedOperation)
		}
	case KindThing:
		if c.Thing == nil {
			return fmt.Errorf("%w: thing change without thing payload", ErrUnsupportedOperation)
		}
	case KindThingTag:
		if c.ThingTag == nil {
			return fmt.Errorf("%w: thing_tag change without thing_tag payload", ErrUnsupportedOperation)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrUnsupportedOperation, c.Kind)
	}
	return nil
}

// String renders the change for logs and CLI listings.
func (c Change) String() string {
	return fmt.Sprintf("%s %s %s", c.Operation, c.Kind, c.ID)
}

// Event is an immutable changelog record. Seq increases monotonically and
// breaks ties between events with the same timestamp.
type Event struct {
	Seq       int64     `json:"seq" yaml:"seq"`
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Applied   bool      `json:"applied" yaml:"applied"`
	Change    Change    `json:"change" yaml:"change"`
}

// MarshalChange encodes a change into the JSON stored in the changelog.
func MarshalChange(c Change) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling change: %w", err)
	}
	return data, nil
}

// UnmarshalChange decodes a stored changelog payload.
func UnmarshalChange(data []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return Change{}, fmt.Errorf("unmarshaling change: %w", err)
	}
	return c, nil
}

// FlushState tracks the commit pipeline.
type FlushState int

// Flush states. A commit moves Pending to Draining to Flushed and stays in
// Draining when an event fails.
const (
	FlushPending FlushState = iota
	FlushDraining
	FlushFlushed
)

func (s FlushState) String() string {
	switch s {
	case FlushPending:
		return "pending"
	case FlushDraining:
		return "draining"
	case FlushFlushed:
		return "flushed"
	default:
		return fmt.Sprintf("FlushState(%d)", int(s))
	}
}
