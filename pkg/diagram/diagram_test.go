package diagram

import (
	"errors"
	"slices"
	"testing"
)

func shape(id string, x, y float64) *Element {
	return &Element{ID: id, Bounds: Bounds{X: x, Y: y, Width: 10, Height: 10}}
}

func TestAddElementErrors(t *testing.T) {
	d := New()
	if err := d.AddElement(shape("A", 0, 0)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		el   *Element
		want error
	}{
		{"Nil", nil, ErrInvalidElementID},
		{"EmptyID", &Element{}, ErrInvalidElementID},
		{"Duplicate", shape("A", 1, 1), ErrDuplicateElementID},
		{"UnknownSource", &Element{ID: "L", Source: "X", Target: "A"}, ErrUnknownEndpoint},
		{"UnknownTarget", &Element{ID: "L", Source: "A", Target: "X"}, ErrUnknownEndpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.AddElement(tt.el); !errors.Is(err, tt.want) {
				t.Errorf("AddElement() error = %v, want %v", err, tt.want)
			}
		})
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestAddElementDefaults(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	_ = d.AddElement(shape("B", 0, 0))
	link := &Element{ID: "L", Source: "A", Target: "B"}
	if err := d.AddElement(link); err != nil {
		t.Fatal(err)
	}
	if link.Type != TypeConnection {
		t.Errorf("Type = %q, want connection", link.Type)
	}
	if link.Props == nil || link.Attrs == nil {
		t.Error("Props/Attrs not initialized")
	}
	a, _ := d.Get("A")
	if a.Type != TypeShape {
		t.Errorf("Type = %q, want shape", a.Type)
	}
}

func TestAddElementFiresEvents(t *testing.T) {
	d := New()
	var got []string
	d.On(EventShapeAdded, 0, func(ev Event) { got = append(got, ev.Name+":"+ev.Elements[0].ID) })
	d.On(EventConnectionAdded, 0, func(ev Event) { got = append(got, ev.Name+":"+ev.Elements[0].ID) })

	_ = d.AddElement(shape("A", 0, 0))
	_ = d.AddElement(shape("B", 0, 0))
	_ = d.AddElement(&Element{ID: "L", Source: "A", Target: "B"})

	want := []string{"shape.added:A", "shape.added:B", "connection.added:L"}
	if !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestAllInsertionOrder(t *testing.T) {
	d := New()
	for _, id := range []string{"c", "a", "b"} {
		_ = d.AddElement(shape(id, 0, 0))
	}
	all, _ := d.All()
	var ids []string
	for _, e := range all {
		ids = append(ids, e.ID)
	}
	if !slices.Equal(ids, []string{"c", "a", "b"}) {
		t.Errorf("All() = %v, want insertion order", ids)
	}
	if _, err := d.Get("zz"); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("Get(zz) error = %v, want ErrUnknownElement", err)
	}
}

func TestMoveEventOrder(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	_ = d.AddElement(shape("B", 0, 0))
	_ = d.AddElement(&Element{ID: "L", Source: "A", Target: "B"})

	var got []string
	var cmds []string
	record := func(ev Event) {
		for _, e := range ev.Elements {
			got = append(got, ev.Name+":"+e.ID)
		}
		cmds = append(cmds, ev.CommandID)
	}
	d.On(EventElementsMoved, 0, record)
	d.On(EventElementMoved, 0, record)

	if _, err := d.Move([]string{"A", "B", "L"}, Point{X: 1}); err != nil {
		t.Fatal(err)
	}
	want := []string{"elements.moved:A", "elements.moved:B", "element.moved:A", "element.moved:B"}
	if !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	for _, c := range cmds {
		if c == "" || c != cmds[0] {
			t.Errorf("command IDs = %v, want one shared non-empty ID", cmds)
			break
		}
	}
}

func TestMoveZeroDelta(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	fired := false
	d.On(EventElementsMoved, 0, func(Event) { fired = true })

	if err := d.MoveElements([]*Element{{ID: "A"}}, Point{}, MoveOptions{}); err != nil {
		t.Fatal(err)
	}
	if fired || d.UndoDepth() != 0 {
		t.Errorf("zero move fired=%v depth=%d, want no event and no command", fired, d.UndoDepth())
	}
}

func TestRulePriority(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	var order []string
	d.AddRule(ActionElementsMove, 10, func(RuleContext) Decision { order = append(order, "low"); return Allow })
	d.AddRule(ActionElementsMove, 100, func(RuleContext) Decision { order = append(order, "high"); return Defer })
	d.AddRule(ActionElementsMove, 50, func(RuleContext) Decision { order = append(order, "mid"); return Deny })

	dec, err := d.Move([]string{"A"}, Point{X: 5})
	if err != nil {
		t.Fatal(err)
	}
	if dec != Deny {
		t.Errorf("Move() = %v, want deny", dec)
	}
	if !slices.Equal(order, []string{"high", "mid"}) {
		t.Errorf("rules ran %v, want [high mid]", order)
	}
	a, _ := d.Get("A")
	if a.Bounds.X != 0 {
		t.Errorf("A.x = %v after denied move, want 0", a.Bounds.X)
	}
}

func TestShapeMoveRule(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	_ = d.AddElement(shape("B", 0, 0))
	d.AddRule(ActionShapeMove, 0, func(RuleContext) Decision { return Deny })

	if dec, _ := d.Move([]string{"A"}, Point{X: 1}); dec != Deny {
		t.Errorf("single shape move = %v, want deny", dec)
	}
	if dec, _ := d.Move([]string{"A", "B"}, Point{X: 1}); dec == Deny {
		t.Error("multi-element move consulted shape.move")
	}
}

func TestUndoRedoCompound(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	_ = d.AddElement(shape("B", 100, 0))
	d.On(EventElementsMoved, 0, func(ev Event) {
		if ev.Elements[0].ID != "A" {
			return
		}
		b, _ := d.Get("B")
		_ = d.MoveElements([]*Element{b}, ev.Delta, MoveOptions{})
		_ = d.UpdateProperties(b, Properties{"followed": true})
	})

	if _, err := d.Move([]string{"A"}, Point{X: 7, Y: 3}); err != nil {
		t.Fatal(err)
	}
	b, _ := d.Get("B")
	if b.Bounds.X != 107 || !b.Props.Bool("followed") {
		t.Fatalf("B = %+v, want moved and flagged", b)
	}
	if d.UndoDepth() != 1 {
		t.Fatalf("UndoDepth() = %d, want 1", d.UndoDepth())
	}

	if err := d.Undo(); err != nil {
		t.Fatal(err)
	}
	a, _ := d.Get("A")
	if a.Bounds.X != 0 || b.Bounds.X != 100 || b.Props.Has("followed") {
		t.Errorf("after undo A.x=%v B.x=%v B.props=%v", a.Bounds.X, b.Bounds.X, b.Props)
	}

	if err := d.Redo(); err != nil {
		t.Fatal(err)
	}
	if a.Bounds.X != 7 || b.Bounds.Y != 3 || !b.Props.Bool("followed") {
		t.Errorf("after redo A.x=%v B.y=%v B.props=%v", a.Bounds.X, b.Bounds.Y, b.Props)
	}
	if err := d.Redo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Redo() on empty stack = %v, want ErrNothingToUndo", err)
	}
}

func TestUpdatePropertiesMergeAndDelete(t *testing.T) {
	d := New()
	a := shape("A", 0, 0)
	a.Props = Properties{"name": "x", "isWeak": true}
	_ = d.AddElement(a)

	if err := d.UpdateProperties(a, Properties{"name": "y", "isWeak": nil}); err != nil {
		t.Fatal(err)
	}
	want := Properties{"name": "y"}
	if !a.Props.Equal(want) {
		t.Errorf("Props = %v, want %v", a.Props, want)
	}
	if err := d.UpdateProperties(a, Properties{"name": "y"}); err != nil {
		t.Fatal(err)
	}
	if d.UndoDepth() != 1 {
		t.Errorf("no-op update recorded a command: depth %d", d.UndoDepth())
	}
	if err := d.UpdateProperties(&Element{ID: "nope"}, Properties{"a": "b"}); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("UpdateProperties(unknown) = %v, want ErrUnknownElement", err)
	}
}

func TestCanonicalKindOnWrite(t *testing.T) {
	tests := []struct {
		name string
		kind any
		want any
	}{
		{"Canonical", "Entity", "Entity"},
		{"Typed", KindRelationship, "Relationship"},
		{"Prefixed", "er:Attribute", "Attribute"},
		{"CaseFolded", "compositeattribute", "CompositeAttribute"},
		{"UnknownName", "Note", "Note"},
		{"NotAKindValue", 42, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			added := shape("A", 0, 0)
			added.Props = Properties{PropKind: tt.kind}
			if err := d.AddElement(added); err != nil {
				t.Fatal(err)
			}
			if got := added.Props[PropKind]; got != tt.want {
				t.Errorf("AddElement erType = %v, want %v", got, tt.want)
			}

			updated := shape("B", 0, 0)
			_ = d.AddElement(updated)
			if err := d.UpdateProperties(updated, Properties{PropKind: tt.kind}); err != nil {
				t.Fatal(err)
			}
			if got := updated.Props[PropKind]; got != tt.want {
				t.Errorf("UpdateProperties erType = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchRecordsOneCommand(t *testing.T) {
	d := New()
	a := shape("A", 0, 0)
	b := shape("B", 50, 0)
	_ = d.AddElement(a)
	_ = d.AddElement(b)

	err := d.Batch(func() error {
		if err := d.MoveElements([]*Element{a}, Point{X: 5}, MoveOptions{}); err != nil {
			return err
		}
		return d.MoveElements([]*Element{b}, Point{X: -5}, MoveOptions{})
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.UndoDepth() != 1 {
		t.Errorf("UndoDepth() = %d, want 1", d.UndoDepth())
	}
	if err := d.Undo(); err != nil {
		t.Fatal(err)
	}
	if a.Bounds.X != 0 || b.Bounds.X != 50 {
		t.Errorf("after undo A.x = %v, B.x = %v, want 0, 50", a.Bounds.X, b.Bounds.X)
	}

	if err := d.Batch(func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if d.UndoDepth() != 0 {
		t.Errorf("empty batch recorded a command: depth %d", d.UndoDepth())
	}
}

func TestDeleteRemovesAttachedConnections(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	_ = d.AddElement(shape("B", 0, 0))
	_ = d.AddElement(shape("C", 0, 0))
	_ = d.AddElement(&Element{ID: "AB", Source: "A", Target: "B"})
	_ = d.AddElement(&Element{ID: "BC", Source: "B", Target: "C"})

	dec, err := d.Delete([]string{"A"})
	if err != nil {
		t.Fatal(err)
	}
	if dec != Defer {
		t.Errorf("Delete() = %v, want defer", dec)
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}
	if _, err := d.Get("AB"); !errors.Is(err, ErrUnknownElement) {
		t.Error("attached connection survived delete")
	}

	if err := d.Undo(); err != nil {
		t.Fatal(err)
	}
	all, _ := d.All()
	var ids []string
	for _, e := range all {
		ids = append(ids, e.ID)
	}
	if !slices.Equal(ids, []string{"A", "B", "C", "AB", "BC"}) {
		t.Errorf("after undo All() = %v", ids)
	}
}

func TestDeleteDenied(t *testing.T) {
	d := New()
	_ = d.AddElement(shape("A", 0, 0))
	d.AddRule(ActionElementsDelete, 0, func(RuleContext) Decision { return Deny })
	if dec, _ := d.Delete([]string{"A"}); dec != Deny {
		t.Errorf("Delete() = %v, want deny", dec)
	}
	if d.Len() != 1 {
		t.Error("denied delete removed the element")
	}
	if err := d.RemoveElements([]string{"A"}); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 0 {
		t.Error("RemoveElements ignored")
	}
}

func TestGestureUnknownElement(t *testing.T) {
	d := New()
	if _, err := d.Move([]string{"x"}, Point{X: 1}); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("Move() error = %v, want ErrUnknownElement", err)
	}
	if _, err := d.Delete([]string{"x"}); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("Delete() error = %v, want ErrUnknownElement", err)
	}
}

func TestBoundsHelpers(t *testing.T) {
	outer := Bounds{X: 100, Y: 100, Width: 200, Height: 150}
	inner := outer.Inset(10)
	if inner != (Bounds{X: 110, Y: 110, Width: 180, Height: 130}) {
		t.Errorf("Inset(10) = %+v", inner)
	}
	if !inner.Encloses(Bounds{X: 110, Y: 140, Width: 60, Height: 40}) {
		t.Error("Encloses() = false for a box touching the inner edge")
	}
	if inner.Encloses(Bounds{X: 250, Y: 140, Width: 60, Height: 40}) {
		t.Error("Encloses() = true for a box crossing the right edge")
	}
	if got := outer.Translate(Point{X: -5, Y: 5}); got.X != 95 || got.Y != 105 {
		t.Errorf("Translate() = %+v", got)
	}
}

func TestDecisionString(t *testing.T) {
	for dec, want := range map[Decision]string{Defer: "defer", Allow: "allow", Deny: "deny"} {
		if got := dec.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", dec, got, want)
		}
	}
}
