package autolayout

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/diagram/diagramtest"
	"github.com/matzehuels/erkit/pkg/er/classify"
	"github.com/matzehuels/erkit/pkg/er/containment"
)

func newEngine(d *diagram.Diagram, m diagram.Modeling) *Engine {
	logger := log.New(io.Discard)
	a := containment.New(d, classify.New(nil, logger), containment.DefaultMargin, logger)
	return New(Config{}, a, m, logger, nil)
}

func x(d *diagram.Diagram, id string) float64 { return diagramtest.MustGet(d, id).Bounds.X }

func TestConfigWithDefaults(t *testing.T) {
	got := Config{Spacing: 4}.WithDefaults()
	want := Config{Margin: 10, SlotWidth: 60, Spacing: 4}
	if got != want {
		t.Errorf("WithDefaults() = %+v, want %+v", got, want)
	}
}

func TestArrangeScenario(t *testing.T) {
	d := diagramtest.Scenario()
	e := newEngine(d, d)

	res := e.Arrange(diagramtest.MustGet(d, diagramtest.Container))

	if got := x(d, diagramtest.ChildA1); got != 110 {
		t.Errorf("A1.x = %v, want 110", got)
	}
	if got := x(d, diagramtest.ChildA2); got != 178 {
		t.Errorf("A2.x = %v, want 178", got)
	}
	for _, id := range []string{diagramtest.ChildA1, diagramtest.ChildA2} {
		if y := diagramtest.MustGet(d, id).Bounds.Y; y != 140 {
			t.Errorf("%s.y = %v, want 140", id, y)
		}
	}
	if !slices.Equal(res.Moved, []string{diagramtest.ChildA2}) {
		t.Errorf("Moved = %v, want [%s]", res.Moved, diagramtest.ChildA2)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", res.Skipped)
	}
}

// crowded returns a 200-wide container holding four 20-wide children, more
// than its two slots can take.
func crowded(t *testing.T) *diagram.Diagram {
	t.Helper()
	d := diagram.New()
	els := []*diagram.Element{
		diagramtest.Shape("C", diagram.KindCompositeAttribute, 100, 100, 200, 150, diagram.Properties{diagram.PropIsComposite: true}),
		diagramtest.Shape("A", diagram.KindAttribute, 110, 140, 20, 40, nil),
		diagramtest.Shape("B", diagram.KindAttribute, 111, 140, 20, 40, nil),
		diagramtest.Shape("C2", diagram.KindAttribute, 112, 140, 20, 40, nil),
		diagramtest.Shape("D", diagram.KindAttribute, 113, 140, 20, 40, nil),
	}
	for _, el := range els {
		if err := d.AddElement(el); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestArrangeIdempotent(t *testing.T) {
	tests := []struct {
		name      string
		diagram   func(t *testing.T) *diagram.Diagram
		container string
		children  []string
		want      []float64
	}{
		{
			name:      "AllFit",
			diagram:   func(*testing.T) *diagram.Diagram { return diagramtest.Scenario() },
			container: diagramtest.Container,
			children:  []string{diagramtest.ChildA1, diagramtest.ChildA2},
			want:      []float64{110, 178},
		},
		{
			name:      "Overflow",
			diagram:   crowded,
			container: "C",
			children:  []string{"A", "B", "C2", "D"},
			want:      []float64{110, 178, 112, 113},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.diagram(t)
			e := newEngine(d, d)
			c := diagramtest.MustGet(d, tt.container)
			positions := func() []float64 {
				var xs []float64
				for _, id := range tt.children {
					xs = append(xs, x(d, id))
				}
				return xs
			}

			e.Arrange(c)
			first := positions()
			if !slices.Equal(first, tt.want) {
				t.Errorf("first Arrange positions = %v, want %v", first, tt.want)
			}
			depth := d.UndoDepth()

			res := e.Arrange(c)
			if second := positions(); !slices.Equal(first, second) {
				t.Errorf("positions changed on second run: %v -> %v", first, second)
			}
			if len(res.Moved) != 0 {
				t.Errorf("second Arrange moved %v, want nothing", res.Moved)
			}
			if d.UndoDepth() != depth {
				t.Errorf("second Arrange recorded commands: depth %d -> %d", depth, d.UndoDepth())
			}
		})
	}
}

func TestArrangeOverflowKeepsPlacedChildren(t *testing.T) {
	d := crowded(t)
	e := newEngine(d, d)
	c := diagramtest.MustGet(d, "C")

	res := e.Arrange(c)
	if !slices.Equal(res.Moved, []string{"B"}) {
		t.Errorf("Moved = %v, want [B]", res.Moved)
	}
	if !slices.Equal(res.Skipped, []string{"C2", "D"}) {
		t.Errorf("Skipped = %v, want [C2 D]", res.Skipped)
	}

	res = e.Arrange(c)
	if !slices.Equal(res.Skipped, []string{"C2", "D"}) {
		t.Errorf("second Skipped = %v, want [C2 D]", res.Skipped)
	}
	if got := x(d, "C2"); got == x(d, "B") {
		t.Errorf("C2.x = %v, want it off B's slot", got)
	}
}

func TestArrangeSingleUndoStep(t *testing.T) {
	d := diagram.New()
	els := []*diagram.Element{
		diagramtest.Shape("C", diagram.KindCompositeAttribute, 100, 100, 300, 150, diagram.Properties{diagram.PropIsComposite: true}),
		diagramtest.Shape("P", diagram.KindAttribute, 120, 140, 40, 40, nil),
		diagramtest.Shape("Q", diagram.KindAttribute, 200, 140, 40, 40, nil),
		diagramtest.Shape("R", diagram.KindAttribute, 300, 140, 40, 40, nil),
	}
	for _, el := range els {
		if err := d.AddElement(el); err != nil {
			t.Fatal(err)
		}
	}
	depth := d.UndoDepth()

	res := newEngine(d, d).Arrange(diagramtest.MustGet(d, "C"))
	if len(res.Moved) != 3 {
		t.Fatalf("Moved = %v, want all three", res.Moved)
	}
	if got := d.UndoDepth(); got != depth+1 {
		t.Errorf("UndoDepth() = %d, want %d", got, depth+1)
	}

	if err := d.Undo(); err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		id   string
		want float64
	}{{"P", 120}, {"Q", 200}, {"R", 300}} {
		if got := x(d, tt.id); got != tt.want {
			t.Errorf("after undo %s.x = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestArrangePreservesLeftToRightOrder(t *testing.T) {
	d := diagram.New()
	steps := []*diagram.Element{
		diagramtest.Shape("C", diagram.KindCompositeAttribute, 100, 100, 200, 150, diagram.Properties{diagram.PropIsComposite: true}),
		diagramtest.Shape("Right", diagram.KindAttribute, 200, 140, 60, 40, nil),
		diagramtest.Shape("Left", diagram.KindAttribute, 150, 140, 40, 40, nil),
	}
	for _, el := range steps {
		if err := d.AddElement(el); err != nil {
			t.Fatal(err)
		}
	}
	newEngine(d, d).Arrange(diagramtest.MustGet(d, "C"))

	if got := x(d, "Left"); got != 110 {
		t.Errorf("Left.x = %v, want 110", got)
	}
	if got := x(d, "Right"); got != 178 {
		t.Errorf("Right.x = %v, want 178", got)
	}
}

func TestArrangeSkipsChildThatDoesNotFit(t *testing.T) {
	d := diagramtest.Scenario()
	if err := d.AddElement(diagramtest.Shape("Attribute_A3", diagram.KindAttribute, 250, 140, 30, 40, nil)); err != nil {
		t.Fatal(err)
	}
	res := newEngine(d, d).Arrange(diagramtest.MustGet(d, diagramtest.Container))

	if !slices.Equal(res.Skipped, []string{"Attribute_A3"}) {
		t.Errorf("Skipped = %v, want [Attribute_A3]", res.Skipped)
	}
	if got := x(d, "Attribute_A3"); got != 250 {
		t.Errorf("A3.x = %v, want 250 (unchanged)", got)
	}
	if w := diagramtest.MustGet(d, diagramtest.Container).Bounds.Width; w != 200 {
		t.Errorf("container width = %v, want 200", w)
	}
}

func TestArrangeMoveFailure(t *testing.T) {
	d := diagramtest.Scenario()
	rec := &diagramtest.RecordingModeling{Err: errors.New("read-only")}
	res := newEngine(d, rec).Arrange(diagramtest.MustGet(d, diagramtest.Container))

	if len(res.Moved) != 0 {
		t.Errorf("Moved = %v, want none", res.Moved)
	}
	if !slices.Equal(res.Skipped, []string{diagramtest.ChildA2}) {
		t.Errorf("Skipped = %v, want [%s]", res.Skipped, diagramtest.ChildA2)
	}
	if len(rec.Moves) != 1 || rec.Moves[0].Delta != (diagram.Point{X: -2}) {
		t.Errorf("Moves = %+v, want one move by (-2,0)", rec.Moves)
	}
}

func TestArrangeNilContainer(t *testing.T) {
	d := diagramtest.Scenario()
	res := newEngine(d, d).Arrange(nil)
	if len(res.Moved)+len(res.Skipped) != 0 {
		t.Errorf("Arrange(nil) = %+v, want empty", res)
	}
}
