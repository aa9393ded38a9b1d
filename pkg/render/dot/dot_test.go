package dot

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/diagram/diagramtest"
	"github.com/matzehuels/erkit/pkg/er/classify"
)

func classifier() *classify.Classifier { return classify.New(nil, log.New(io.Discard)) }

func TestToDOTShapesByKind(t *testing.T) {
	d := diagramtest.Scenario()
	if err := d.AddElement(&diagram.Element{ID: "Note_1", Bounds: diagram.Bounds{X: 0, Y: 0, Width: 72, Height: 36}}); err != nil {
		t.Fatal(err)
	}
	out, err := ToDOT(d, classifier(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"Header", "graph ER {"},
		{"Entity", `"Entity_E" [shape=box, label="Customer"`},
		{"Relationship", `"Relationship_R" [shape=diamond, label="places"`},
		{"Attribute", `"Attribute_A1" [shape=ellipse, label="street"`},
		{"Composite", `"Composite_C" [shape=box, style="rounded,filled"`},
		{"Unknown", `"Note_1" [shape=note`},
		{"Pinned", `width=1.000, height=0.500, fixedsize=true, pos="0.500,-0.250!"`},
		{"ContainmentEdge", `"Composite_C" -- "Attribute_A1" [style=dashed, color=grey40];`},
		{"PlainEdge", `"Entity_E" -- "Relationship_R";`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(out, tt.want) {
				t.Errorf("ToDOT() missing %s\n%s", tt.want, out)
			}
		})
	}
}

func TestToDOTDetailed(t *testing.T) {
	d := diagramtest.Scenario()
	a1 := diagramtest.MustGet(d, diagramtest.ChildA1)
	if err := d.UpdateProperties(a1, diagram.Properties{
		diagram.PropIsPrimaryKey:  true,
		diagram.PropDataType:      "varchar",
		diagram.PropIsMultivalued: true,
	}); err != nil {
		t.Fatal(err)
	}
	out, err := ToDOT(d, classifier(), Options{Detailed: true, Free: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`label=<<U>street: varchar</U>>`,
		`peripheries=2`,
		`taillabel="1", headlabel="N"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ToDOT() missing %s\n%s", want, out)
		}
	}
	if strings.Contains(out, "pos=") {
		t.Error("Free layout still pins positions")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	d := diagramtest.Scenario()
	a, _ := ToDOT(d, classifier(), Options{})
	b, _ := ToDOT(d, classifier(), Options{})
	if a != b {
		t.Error("ToDOT() output is not stable")
	}
}

func TestToDOTRegistryError(t *testing.T) {
	if _, err := ToDOT(diagramtest.FailingRegistry{}, classifier(), Options{}); err == nil {
		t.Error("ToDOT() with a failing registry succeeded")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("normalizeViewBox() without viewBox = %s", got)
	}
}

func TestHTMLEscape(t *testing.T) {
	if got := htmlEscape(`a<b>&"c"`); got != "a&lt;b&gt;&amp;&quot;c&quot;" {
		t.Errorf("htmlEscape() = %q", got)
	}
}
