package datapackage

import "github.com/mesh-intelligence/shelf/pkg/types"

// DefaultResources returns the tag, thing and thing_tag resources every
// shelf package carries, in load order.
func DefaultResources() []Resource {
	return []Resource{tagResource(), thingResource(), thingTagResource()}
}

func required(unique bool) []Constraint {
	return []Constraint{{Required: true, Unique: unique}}
}

func optional() []Constraint {
	return []Constraint{{Required: false, Unique: false}}
}

func tagResource() Resource {
	return Resource{
		Profile:     ResourceProfile,
		Name:        types.TagTable,
		Title:       "Tag",
		Description: "The set of tags and categories for the collection.",
		Path:        DataDir + "/tag.csv",
		Encoding:    EncodingUTF8,
		Schema: Schema{
			Fields: []Field{
				{Name: "id", Description: "The identifier of the tag.", Type: "string", Constraints: required(true)},
				{Name: "name", Description: "The name of the tag.", Type: "string", Constraints: optional()},
				{Name: "summary", Description: "The description of the tag.", Type: "string", Constraints: optional()},
			},
			PrimaryKey: []string{"id"},
		},
	}
}

func thingResource() Resource {
	return Resource{
		Profile:     ResourceProfile,
		Name:        types.ThingTable,
		Title:       "Thing",
		Description: "The set of things for the collection.",
		Path:        DataDir + "/thing.csv",
		Encoding:    EncodingUTF8,
		Schema: Schema{
			Fields: []Field{
				{Name: "url", Description: "The URL of the thing.", Type: "string", Format: "uri", Constraints: required(true)},
				{Name: "name", Description: "The name of the thing.", Type: "string", Constraints: required(false)},
				{Name: "summary", Description: "The description of the thing.", Type: "string", Constraints: optional()},
				{Name: "category_id", Description: "The category of the thing.", Type: "string", Constraints: required(false)},
			},
			PrimaryKey: []string{"url"},
			ForeignKeys: []ForeignKey{
				{Fields: []string{"category_id"}, Reference: Reference{Resource: types.TagTable, Fields: []string{"id"}}},
			},
		},
	}
}

func thingTagResource() Resource {
	return Resource{
		Profile:     ResourceProfile,
		Name:        types.ThingTagTable,
		Title:       "Thing tags",
		Description: "The tags attached to each thing.",
		Path:        DataDir + "/thing_tag.csv",
		Encoding:    EncodingUTF8,
		Schema: Schema{
			Fields: []Field{
				{Name: "thing_id", Description: "The URL of the thing.", Type: "string", Format: "uri", Constraints: required(false)},
				{Name: "tag_id", Description: "The identifier of the tag.", Type: "string", Constraints: required(false)},
			},
			PrimaryKey: []string{"thing_id", "tag_id"},
			ForeignKeys: []ForeignKey{
				{Fields: []string{"thing_id"}, Reference: Reference{Resource: types.ThingTable, Fields: []string{"url"}}},
				{Fields: []string{"tag_id"}, Reference: Reference{Resource: types.TagTable, Fields: []string{"id"}}},
			},
		},
	}
}
