// Package diagramtest provides diagram fixtures and fault-injecting engine
// ports for tests.
package diagramtest

import (
	"errors"

	"github.com/matzehuels/erkit/pkg/diagram"
)

// Fixture element IDs.
const (
	Container  = "Composite_C"
	ChildA1    = "Attribute_A1"
	ChildA2    = "Attribute_A2"
	FreeEntity = "Entity_E"
	Relation   = "Relationship_R"
	LinkA1A2   = "Flow_A1_A2"
	LinkCA1    = "Flow_C_A1"
	LinkER     = "Flow_E_R"
)

// ErrUnavailable is returned by the failing ports.
var ErrUnavailable = errors.New("registry unavailable")

// Scenario builds the reference diagram: a composite container at
// (100,100) sized 200x150 holding two attributes at x=110 and x=180, a
// parent-child link between them and a containment link from the container
// to the first, plus a free entity and relationship outside.
func Scenario() *diagram.Diagram {
	d := diagram.New()
	must(d.AddElement(Shape(Container, diagram.KindCompositeAttribute, 100, 100, 200, 150, diagram.Properties{
		diagram.PropName:        "address",
		diagram.PropIsComposite: true,
	})))
	must(d.AddElement(Shape(ChildA1, diagram.KindAttribute, 110, 140, 60, 40, diagram.Properties{
		diagram.PropName: "street",
	})))
	must(d.AddElement(Shape(ChildA2, diagram.KindAttribute, 180, 140, 60, 40, diagram.Properties{
		diagram.PropName: "city",
	})))
	must(d.AddElement(Shape(FreeEntity, diagram.KindEntity, 400, 100, 120, 80, diagram.Properties{
		diagram.PropName: "Customer",
	})))
	must(d.AddElement(Shape(Relation, diagram.KindRelationship, 600, 100, 100, 60, diagram.Properties{
		diagram.PropName: "places",
	})))
	must(d.AddElement(Link(LinkA1A2, ChildA1, ChildA2, diagram.Properties{diagram.PropIsParentChild: true})))
	must(d.AddElement(Link(LinkCA1, Container, ChildA1, diagram.Properties{diagram.PropIsCompositeContainment: true})))
	must(d.AddElement(Link(LinkER, FreeEntity, Relation, diagram.Properties{
		diagram.PropCardinalitySource: "1",
		diagram.PropCardinalityTarget: "N",
	})))
	return d
}

// Shape returns a shape element of the given kind. props may be nil.
func Shape(id string, kind diagram.Kind, x, y, w, h float64, props diagram.Properties) *diagram.Element {
	p := props.Clone()
	p[diagram.PropKind] = kind.String()
	return &diagram.Element{
		ID:     id,
		Type:   diagram.TypeShape,
		Bounds: diagram.Bounds{X: x, Y: y, Width: w, Height: h},
		Props:  p,
	}
}

// Link returns a connection element. props may be nil.
func Link(id, source, target string, props diagram.Properties) *diagram.Element {
	p := props.Clone()
	p[diagram.PropKind] = diagram.KindConnection.String()
	return &diagram.Element{
		ID:     id,
		Type:   diagram.TypeConnection,
		Source: source,
		Target: target,
		Props:  p,
	}
}

// MustGet returns the element with the given ID or panics.
func MustGet(r diagram.Registry, id string) *diagram.Element {
	e, err := r.Get(id)
	if err != nil {
		panic(err)
	}
	return e
}

// FailingRegistry is a registry whose queries always fail.
type FailingRegistry struct{}

func (FailingRegistry) All() ([]*diagram.Element, error)     { return nil, ErrUnavailable }
func (FailingRegistry) Get(string) (*diagram.Element, error) { return nil, ErrUnavailable }

// PanickingRegistry is a registry whose queries panic.
type PanickingRegistry struct{}

func (PanickingRegistry) All() ([]*diagram.Element, error)     { panic(ErrUnavailable) }
func (PanickingRegistry) Get(string) (*diagram.Element, error) { panic(ErrUnavailable) }

// RecordingModeling records move commands and optionally fails them.
type RecordingModeling struct {
	Moves []Move
	Err   error
	Panic any

	// Forward, when set, receives every move after it is recorded.
	Forward diagram.Modeling

	// OnMove, when set, runs inside every MoveElements call before it fails
	// or forwards.
	OnMove func()
}

// Move is one recorded MoveElements call.
type Move struct {
	IDs   []string
	Delta diagram.Point
	Opts  diagram.MoveOptions
}

func (m *RecordingModeling) MoveElements(elements []*diagram.Element, delta diagram.Point, opts diagram.MoveOptions) error {
	ids := make([]string, len(elements))
	for i, e := range elements {
		ids[i] = e.ID
	}
	m.Moves = append(m.Moves, Move{IDs: ids, Delta: delta, Opts: opts})
	if m.OnMove != nil {
		m.OnMove()
	}
	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Err != nil {
		return m.Err
	}
	if m.Forward != nil {
		return m.Forward.MoveElements(elements, delta, opts)
	}
	return nil
}

func (m *RecordingModeling) UpdateProperties(element *diagram.Element, props diagram.Properties) error {
	if m.Forward != nil {
		return m.Forward.UpdateProperties(element, props)
	}
	for k, v := range props {
		element.Props[k] = v
	}
	return nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
