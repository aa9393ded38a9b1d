package diagram

import (
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInvalidElementID is returned by [Diagram.AddElement] when the element
	// ID is empty.
	ErrInvalidElementID = errors.New("element ID must not be empty")

	// ErrDuplicateElementID is returned by [Diagram.AddElement] when an element
	// with the same ID is already registered.
	ErrDuplicateElementID = errors.New("duplicate element ID")

	// ErrUnknownElement is returned when an ID does not resolve to an element.
	ErrUnknownElement = errors.New("unknown element")

	// ErrUnknownEndpoint is returned by [Diagram.AddElement] when a connection
	// references a source or target that is not registered.
	ErrUnknownEndpoint = errors.New("unknown connection endpoint")

	// ErrNothingToUndo is returned by [Diagram.Undo] and [Diagram.Redo] when the
	// respective stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
)

type handlerEntry struct {
	priority int
	h        Handler
}

type ruleEntry struct {
	priority int
	r        Rule
}

// Diagram is an in-memory diagram engine implementing [Registry], [Modeling],
// [EventBus] and [RuleProvider].
//
// Commands are recorded as compounds: a command started while another one is
// executing (typically from an event handler reacting to the first) joins the
// outer compound, so a single Undo reverts the whole gesture.
//
// The mutex guards the element maps only. It is never held while handlers or
// rules run, so handlers may call back into the diagram.
type Diagram struct {
	mu       sync.RWMutex
	elements map[string]*Element
	order    []string

	busMu    sync.RWMutex
	handlers map[string][]handlerEntry
	rules    map[string][]ruleEntry

	stack commandStack
	newID func() string
}

// New creates an empty diagram.
func New() *Diagram {
	return &Diagram{
		elements: make(map[string]*Element),
		handlers: make(map[string][]handlerEntry),
		rules:    make(map[string][]ruleEntry),
		newID:    uuid.NewString,
	}
}

// =============================================================================
// Registry
// =============================================================================

// AddElement registers an element. Props and Attrs are initialized to empty
// maps when nil, and a missing Type defaults to shape (or connection when
// Source/Target are set). An erType naming a known kind is stored under its
// canonical name. Fires shape.added or connection.added.
func (d *Diagram) AddElement(e *Element) error {
	if e == nil || e.ID == "" {
		return ErrInvalidElementID
	}
	if e.Props == nil {
		e.Props = Properties{}
	}
	canonicalKind(e.Props)
	if e.Attrs == nil {
		e.Attrs = Attrs{}
	}
	if e.Type == "" {
		e.Type = TypeShape
		if e.Source != "" || e.Target != "" {
			e.Type = TypeConnection
		}
	}

	d.mu.Lock()
	if _, exists := d.elements[e.ID]; exists {
		d.mu.Unlock()
		return ErrDuplicateElementID
	}
	if e.IsConnection() {
		_, okSrc := d.elements[e.Source]
		_, okDst := d.elements[e.Target]
		if !okSrc || !okDst {
			d.mu.Unlock()
			return ErrUnknownEndpoint
		}
	}
	d.elements[e.ID] = e
	d.order = append(d.order, e.ID)
	d.mu.Unlock()

	name := EventShapeAdded
	if e.IsConnection() {
		name = EventConnectionAdded
	}
	d.Fire(Event{Name: name, Elements: []*Element{e}})
	return nil
}

// All returns every element in insertion order. The pointers refer to the live
// elements.
func (d *Diagram) All() ([]*Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Element, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.elements[id])
	}
	return out, nil
}

// Get returns the element with the given ID or ErrUnknownElement.
func (d *Diagram) Get(id string) (*Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.elements[id]
	if !ok {
		return nil, ErrUnknownElement
	}
	return e, nil
}

// Len returns the number of registered elements.
func (d *Diagram) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.elements)
}

func (d *Diagram) resolve(ids []string) ([]*Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Element, 0, len(ids))
	for _, id := range ids {
		e, ok := d.elements[id]
		if !ok {
			return nil, ErrUnknownElement
		}
		out = append(out, e)
	}
	return out, nil
}

// =============================================================================
// EventBus
// =============================================================================

// On subscribes h to event. Handlers run in descending priority order;
// handlers with equal priority run in subscription order.
func (d *Diagram) On(event string, priority int, h Handler) {
	d.busMu.Lock()
	defer d.busMu.Unlock()
	list := append(d.handlers[event], handlerEntry{priority: priority, h: h})
	sort.SliceStable(list, func(i, j int) bool { return list[i].priority > list[j].priority })
	d.handlers[event] = list
}

// Fire delivers e to all handlers subscribed to e.Name.
func (d *Diagram) Fire(e Event) {
	d.busMu.RLock()
	list := slices.Clone(d.handlers[e.Name])
	d.busMu.RUnlock()
	for _, entry := range list {
		entry.h(e)
	}
}

// =============================================================================
// RuleProvider
// =============================================================================

// AddRule registers r for action. Rules run in descending priority order.
func (d *Diagram) AddRule(action string, priority int, r Rule) {
	d.busMu.Lock()
	defer d.busMu.Unlock()
	list := append(d.rules[action], ruleEntry{priority: priority, r: r})
	sort.SliceStable(list, func(i, j int) bool { return list[i].priority > list[j].priority })
	d.rules[action] = list
}

// Evaluate runs the rules registered for ctx.Action. The first rule returning
// something other than Defer decides; when every rule defers, Defer is
// returned and callers apply the engine default (allow).
func (d *Diagram) Evaluate(ctx RuleContext) Decision {
	d.busMu.RLock()
	list := slices.Clone(d.rules[ctx.Action])
	d.busMu.RUnlock()
	for _, entry := range list {
		if dec := entry.r(ctx); dec != Defer {
			return dec
		}
	}
	return Defer
}
