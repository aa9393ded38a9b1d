package attrsync

import "github.com/matzehuels/erkit/pkg/diagram"

// FieldType is the value type of a schema field.
type FieldType int

const (
	String FieldType = iota
	Bool
)

// Field is one persisted property of a kind.
type Field struct {
	Name string
	Type FieldType
}

var attributeFields = []Field{
	{diagram.PropName, String},
	{diagram.PropIsPrimaryKey, Bool},
	{diagram.PropIsRequired, Bool},
	{diagram.PropIsMultivalued, Bool},
	{diagram.PropIsDerived, Bool},
	{diagram.PropDataType, String},
}

var schemas = map[diagram.Kind][]Field{
	diagram.KindEntity: {
		{diagram.PropName, String},
		{diagram.PropIsWeak, Bool},
	},
	diagram.KindRelationship: {
		{diagram.PropName, String},
		{diagram.PropIsIdentifying, Bool},
	},
	diagram.KindAttribute:          attributeFields,
	diagram.KindCompositeAttribute: append(append([]Field(nil), attributeFields...), Field{diagram.PropIsComposite, Bool}),
	diagram.KindConnection: {
		{diagram.PropCardinalitySource, String},
		{diagram.PropCardinalityTarget, String},
		{diagram.PropIsParentChild, Bool},
		{diagram.PropIsCompositeContainment, Bool},
	},
}

// Schema returns the persisted fields of kind, or nil for kinds that are not
// synchronized.
func Schema(kind diagram.Kind) []Field {
	return schemas[kind]
}

func field(kind diagram.Kind, name string) (Field, bool) {
	for _, f := range schemas[kind] {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
