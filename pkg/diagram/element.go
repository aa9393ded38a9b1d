package diagram

import (
	"maps"
	"strings"
)

// Kind is the semantic ER kind of a diagram element.
type Kind int

const (
	// KindUnknown marks elements that are not part of the ER model. Rules treat
	// them as generic shapes and fall back to the engine's default behavior.
	KindUnknown Kind = iota
	KindEntity
	KindRelationship
	KindAttribute
	KindCompositeAttribute
	KindConnection
)

var kindNames = map[Kind]string{
	KindUnknown:            "Unknown",
	KindEntity:             "Entity",
	KindRelationship:       "Relationship",
	KindAttribute:          "Attribute",
	KindCompositeAttribute: "CompositeAttribute",
	KindConnection:         "Connection",
}

// String returns the persisted name of the kind (e.g. "CompositeAttribute").
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// IsER reports whether the kind belongs to the ER model.
func (k Kind) IsER() bool { return k != KindUnknown }

// ParseKind resolves a persisted kind name. Engine-prefixed names such as
// "er:Entity" are accepted as well. Unresolvable names yield KindUnknown.
func ParseKind(s string) Kind {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	for k, name := range kindNames {
		if k != KindUnknown && strings.EqualFold(name, s) {
			return k
		}
	}
	return KindUnknown
}

// canonicalKind rewrites an erType entry naming a known kind, either as a
// Kind or as a possibly prefixed string, to the kind's canonical name.
func canonicalKind(p Properties) {
	var k Kind
	switch v := p[PropKind].(type) {
	case Kind:
		k = v
	case string:
		k = ParseKind(v)
	default:
		return
	}
	if k.IsER() {
		p[PropKind] = k.String()
	}
}

// ElementType is the engine-level type of an element, independent of its ER kind.
type ElementType string

const (
	TypeShape      ElementType = "shape"
	TypeConnection ElementType = "connection"
	TypeLabel      ElementType = "label"
	TypeRoot       ElementType = "root"
)

// Well-known property keys.
const (
	PropKind                   = "erType"
	PropName                   = "name"
	PropIsWeak                 = "isWeak"
	PropIsIdentifying          = "isIdentifying"
	PropIsPrimaryKey           = "isPrimaryKey"
	PropIsRequired             = "isRequired"
	PropIsMultivalued          = "isMultivalued"
	PropIsDerived              = "isDerived"
	PropIsComposite            = "isComposite"
	PropDataType               = "dataType"
	PropCardinalitySource      = "cardinalitySource"
	PropCardinalityTarget      = "cardinalityTarget"
	PropIsParentChild          = "isParentChild"
	PropIsCompositeContainment = "isCompositeContainment"
)

// Point is a 2D position or a movement delta.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsZero reports whether both coordinates are zero.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (b Bounds) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Bounds) Bottom() float64 { return b.Y + b.Height }

// Inset returns b shrunk by margin on every side.
func (b Bounds) Inset(margin float64) Bounds {
	return Bounds{X: b.X + margin, Y: b.Y + margin, Width: b.Width - 2*margin, Height: b.Height - 2*margin}
}

// Encloses reports whether o lies entirely within b (edges inclusive).
func (b Bounds) Encloses(o Bounds) bool {
	return o.X >= b.X && o.Right() <= b.Right() && o.Y >= b.Y && o.Bottom() <= b.Bottom()
}

// Translate returns b moved by delta.
func (b Bounds) Translate(d Point) Bounds {
	b.X += d.X
	b.Y += d.Y
	return b
}

// Properties is the live, kind-specific property bag of an element.
// Values are bool or string for every key the ER model knows about.
type Properties map[string]any

// Bool returns the boolean value stored under key, or false.
func (p Properties) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// String returns the string value stored under key, or "".
func (p Properties) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Has reports whether key is set.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Clone returns a shallow copy. A nil bag clones to an empty one.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	maps.Copy(out, p)
	return out
}

// Equal reports whether both bags hold the same keys with equal values.
func (p Properties) Equal(o Properties) bool {
	return maps.Equal(p, o)
}

// Attrs is the flat, namespace-qualified attribute bag that is persisted with an
// element (e.g. "er:isWeak" -> "true").
type Attrs map[string]string

// Clone returns a copy of the bag.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	maps.Copy(out, a)
	return out
}

// Element is a shape or connection of the diagram.
//
// Parent is a lookup-only reference: the element does not own or hold its parent,
// it is resolved through the registry when needed.
type Element struct {
	ID     string
	Type   ElementType
	Bounds Bounds
	Parent string

	// Source and Target are set for connections only.
	Source string
	Target string

	Props Properties
	Attrs Attrs
}

// IsConnection reports whether the element is a connection.
func (e *Element) IsConnection() bool { return e.Type == TypeConnection }

// IsShape reports whether the element is a regular shape (not a label or root).
func (e *Element) IsShape() bool { return e.Type == TypeShape || e.Type == "" }

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := *e
	c.Props = e.Props.Clone()
	c.Attrs = e.Attrs.Clone()
	return &c
}
