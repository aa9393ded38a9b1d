package classify

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
)

func newTestClassifier() *Classifier {
	return New(nil, log.New(io.Discard))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		elem *diagram.Element
		want diagram.Kind
	}{
		{
			name: "LiveProperty",
			elem: &diagram.Element{ID: "e", Props: diagram.Properties{diagram.PropKind: "Entity"}},
			want: diagram.KindEntity,
		},
		{
			name: "LivePropertyPrefixed",
			elem: &diagram.Element{ID: "r", Props: diagram.Properties{diagram.PropKind: "er:Relationship"}},
			want: diagram.KindRelationship,
		},
		{
			name: "LivePropertyTyped",
			elem: &diagram.Element{ID: "a", Props: diagram.Properties{diagram.PropKind: diagram.KindAttribute}},
			want: diagram.KindAttribute,
		},
		{
			name: "PrimaryAlias",
			elem: &diagram.Element{ID: "c", Attrs: diagram.Attrs{"er:erType": "CompositeAttribute"}},
			want: diagram.KindCompositeAttribute,
		},
		{
			name: "LegacyAlias",
			elem: &diagram.Element{ID: "c", Attrs: diagram.Attrs{"ns0:erType": "Attribute"}},
			want: diagram.KindAttribute,
		},
		{
			name: "PrimaryAliasWins",
			elem: &diagram.Element{ID: "c", Attrs: diagram.Attrs{"er:erType": "Entity", "ns0:erType": "Attribute"}},
			want: diagram.KindEntity,
		},
		{
			name: "LivePropertyWinsOverBag",
			elem: &diagram.Element{
				ID:    "c",
				Props: diagram.Properties{diagram.PropKind: "Relationship"},
				Attrs: diagram.Attrs{"er:erType": "Entity"},
			},
			want: diagram.KindRelationship,
		},
		{
			name: "ConnectionWithoutKind",
			elem: &diagram.Element{ID: "f", Type: diagram.TypeConnection, Source: "a", Target: "b"},
			want: diagram.KindConnection,
		},
		{
			name: "UnknownAlias",
			elem: &diagram.Element{ID: "x", Attrs: diagram.Attrs{"bpmn:erType": "Entity"}},
			want: diagram.KindUnknown,
		},
		{
			name: "Garbage",
			elem: &diagram.Element{ID: "x", Props: diagram.Properties{diagram.PropKind: 42}},
			want: diagram.KindUnknown,
		},
		{
			name: "Nil",
			elem: nil,
			want: diagram.KindUnknown,
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.elem); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveDecodesBag(t *testing.T) {
	c := newTestClassifier()
	e := &diagram.Element{ID: "c", Attrs: diagram.Attrs{
		"ns0:erType":      "CompositeAttribute",
		"ns0:isComposite": "false",
		"er:isComposite":  "true",
		"er:dataType":     "VARCHAR(32)",
		"other:ignored":   "x",
	}}

	got := c.Resolve(e)
	if got.Kind != diagram.KindCompositeAttribute {
		t.Errorf("Kind = %v, want %v", got.Kind, diagram.KindCompositeAttribute)
	}
	if !got.Props.Bool(diagram.PropIsComposite) {
		t.Error("isComposite should come from the preferred alias")
	}
	if got.Props.String(diagram.PropDataType) != "VARCHAR(32)" {
		t.Errorf("dataType = %q, want VARCHAR(32)", got.Props.String(diagram.PropDataType))
	}
	if got.Props.Has("ignored") {
		t.Error("keys outside known aliases must be ignored")
	}
}

func TestResolvePrefersLiveProps(t *testing.T) {
	c := newTestClassifier()
	e := &diagram.Element{
		ID:    "a",
		Props: diagram.Properties{diagram.PropKind: "Attribute", diagram.PropIsPrimaryKey: true},
		Attrs: diagram.Attrs{"er:isPrimaryKey": "false"},
	}
	got := c.Resolve(e)
	if !got.Props.Bool(diagram.PropIsPrimaryKey) {
		t.Error("live properties should win over the attribute bag")
	}
	got.Props[diagram.PropName] = "mutated"
	if e.Props.Has(diagram.PropName) {
		t.Error("Resolve must return a copy of the live properties")
	}
}

func TestIsCompositeContainer(t *testing.T) {
	tests := []struct {
		name string
		elem *diagram.Element
		want bool
	}{
		{
			name: "CompositeFlagSet",
			elem: &diagram.Element{ID: "c", Props: diagram.Properties{diagram.PropKind: "CompositeAttribute", diagram.PropIsComposite: true}},
			want: true,
		},
		{
			name: "CompositeFlagUnset",
			elem: &diagram.Element{ID: "c", Props: diagram.Properties{diagram.PropKind: "CompositeAttribute"}},
			want: false,
		},
		{
			name: "AttributeWithFlag",
			elem: &diagram.Element{ID: "a", Props: diagram.Properties{diagram.PropKind: "Attribute", diagram.PropIsComposite: true}},
			want: false,
		},
		{
			name: "ImportedOnly",
			elem: &diagram.Element{ID: "c", Attrs: diagram.Attrs{"ns0:erType": "CompositeAttribute", "ns0:isComposite": "true"}},
			want: true,
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsCompositeContainer(tt.elem); got != tt.want {
				t.Errorf("IsCompositeContainer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitKey(t *testing.T) {
	c := newTestClassifier()
	if alias, prop, ok := c.SplitKey("ns0:isWeak"); !ok || alias != "ns0" || prop != "isWeak" {
		t.Errorf("SplitKey(ns0:isWeak) = (%q, %q, %v)", alias, prop, ok)
	}
	if _, _, ok := c.SplitKey("bpmn:isWeak"); ok {
		t.Error("SplitKey should reject unknown aliases")
	}
	if _, _, ok := c.SplitKey("isWeak"); ok {
		t.Error("SplitKey should reject unprefixed keys")
	}
}
