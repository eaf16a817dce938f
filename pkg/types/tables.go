package types

// Resource names shared by the package descriptor, the CSV files and the
// SQLite relations of both rings.
const (
	TagTable      = "tag"
	ThingTable    = "thing"
	ThingTagTable = "thing_tag"
)

// StandardTableNames lists the resources in load order. Tags come first
// because things reference them by category, and thing_tag references both.
var StandardTableNames = []string{
	TagTable,
	ThingTable,
	ThingTagTable,
}

// Column lists per resource, in CSV header order.
var (
	TagColumns      = []string{"id", "name", "summary"}
	ThingColumns    = []string{"url", "name", "summary", "category_id"}
	ThingTagColumns = []string{"thing_id", "tag_id"}
)

// ColumnsFor returns the CSV header for the named resource, or nil when the
// name is not a standard table.
func ColumnsFor(table string) []string {
	switch table {
	case TagTable:
		return TagColumns
	case ThingTable:
		return ThingColumns
	case ThingTagTable:
		return ThingTagColumns
	default:
		return nil
	}
}

// DefaultCategory is the tag every new package is seeded with and the
// category a thing falls back to when none is given.
const DefaultCategory = "miscellaneous"
