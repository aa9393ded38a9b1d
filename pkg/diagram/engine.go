package diagram

// =============================================================================
// Engine Ports
// =============================================================================
//
// The interfaces below are everything the ER core consumes from a diagram
// engine. Diagram implements all of them in memory; an embedding editor can
// supply its own.

// Event names fired by the engine.
const (
	EventElementMoved    = "element.moved"
	EventElementsMoved   = "elements.moved"
	EventShapeAdded      = "shape.added"
	EventConnectionAdded = "connection.added"
)

// Rule action names.
const (
	ActionShapeMove      = "shape.move"
	ActionElementsMove   = "elements.move"
	ActionElementsDelete = "elements.delete"
)

// Registry enumerates and looks up diagram elements.
type Registry interface {
	All() ([]*Element, error)
	Get(id string) (*Element, error)
}

// MoveOptions controls how the engine applies a move.
type MoveOptions struct {
	// AutoResize lets the engine grow the new parent to fit moved shapes.
	AutoResize bool
	// Attach re-parents the moved shapes to whatever they were dropped on.
	Attach bool
}

// Modeling issues state-changing commands against the diagram.
type Modeling interface {
	MoveElements(elements []*Element, delta Point, opts MoveOptions) error
	UpdateProperties(element *Element, props Properties) error
}

// Event is the payload delivered to event handlers.
type Event struct {
	Name      string
	CommandID string
	Elements  []*Element
	Delta     Point
}

// Handler receives engine events.
type Handler func(Event)

// EventBus delivers engine notifications. Handlers with higher priority run
// first.
type EventBus interface {
	On(event string, priority int, h Handler)
	Fire(e Event)
}

// Decision is the outcome of a rule evaluation.
type Decision int

const (
	// Defer lets lower-priority rules (ultimately the engine default) decide.
	Defer Decision = iota
	Allow
	Deny
)

// String returns "defer", "allow" or "deny".
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "defer"
	}
}

// RuleContext describes the gesture a rule is asked about.
type RuleContext struct {
	CommandID string
	Action    string
	Elements  []*Element
	Delta     Point
}

// Rule decides whether a gesture may proceed.
type Rule func(RuleContext) Decision

// RuleProvider registers rules for engine actions.
type RuleProvider interface {
	AddRule(action string, priority int, r Rule)
}

// Engine bundles the ports an ER modeler is constructed from.
type Engine interface {
	Registry
	Modeling
	EventBus
	RuleProvider
}

// Gestures is implemented by engines that accept rule-gated user gestures.
type Gestures interface {
	Move(ids []string, delta Point) (Decision, error)
	Delete(ids []string) (Decision, error)
}

// Batcher is implemented by engines that can group several commands into
// one undo step.
type Batcher interface {
	Batch(fn func() error) error
}

var _ interface {
	Engine
	Gestures
	Batcher
} = (*Diagram)(nil)
