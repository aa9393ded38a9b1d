package diagram

import (
	"maps"
	"slices"
)

// =============================================================================
// Command Stack
// =============================================================================

// op is a single reversible change recorded in a compound command.
type op interface {
	undo(d *Diagram)
	redo(d *Diagram)
}

// compound groups every op executed during one top-level command.
type compound struct {
	id  string
	ops []op
}

type commandStack struct {
	current *compound
	undo    []*compound
	redo    []*compound
}

// execute runs fn inside a compound command. When a compound is already open
// (fn was reached from a handler of an outer command), fn joins it and id is
// ignored. The returned command ID is that of the compound fn ran in.
func (d *Diagram) execute(id string, fn func(c *compound) error) (string, error) {
	d.mu.Lock()
	if c := d.stack.current; c != nil {
		d.mu.Unlock()
		return c.id, fn(c)
	}
	if id == "" {
		id = d.newID()
	}
	c := &compound{id: id}
	d.stack.current = c
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.stack.current = nil
		if len(c.ops) > 0 {
			d.stack.undo = append(d.stack.undo, c)
			d.stack.redo = nil
		}
		d.mu.Unlock()
	}()
	return id, fn(c)
}

// Batch runs fn as one compound command: every mutation fn performs is undone
// and redone together. Inside an open command fn joins it.
func (d *Diagram) Batch(fn func() error) error {
	_, err := d.execute("", func(*compound) error { return fn() })
	return err
}

// Undo reverts the most recent compound command.
func (d *Diagram) Undo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.stack.undo)
	if n == 0 {
		return ErrNothingToUndo
	}
	c := d.stack.undo[n-1]
	d.stack.undo = d.stack.undo[:n-1]
	for i := len(c.ops) - 1; i >= 0; i-- {
		c.ops[i].undo(d)
	}
	d.stack.redo = append(d.stack.redo, c)
	return nil
}

// Redo re-applies the most recently undone compound command.
func (d *Diagram) Redo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.stack.redo)
	if n == 0 {
		return ErrNothingToUndo
	}
	c := d.stack.redo[n-1]
	d.stack.redo = d.stack.redo[:n-1]
	for _, o := range c.ops {
		o.redo(d)
	}
	d.stack.undo = append(d.stack.undo, c)
	return nil
}

// UndoDepth returns the number of compound commands that can be undone.
func (d *Diagram) UndoDepth() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.stack.undo)
}

// ClearHistory drops the undo and redo stacks.
func (d *Diagram) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stack.undo = nil
	d.stack.redo = nil
}

type moveOp struct {
	ids   []string
	delta Point
}

func (o moveOp) undo(d *Diagram) { d.translate(o.ids, Point{X: -o.delta.X, Y: -o.delta.Y}) }
func (o moveOp) redo(d *Diagram) { d.translate(o.ids, o.delta) }

type propsOp struct {
	id            string
	before, after Properties
}

func (o propsOp) undo(d *Diagram) {
	if e, ok := d.elements[o.id]; ok {
		e.Props = o.before.Clone()
	}
}

func (o propsOp) redo(d *Diagram) {
	if e, ok := d.elements[o.id]; ok {
		e.Props = o.after.Clone()
	}
}

type removeOp struct {
	removed []*Element
	order   []string
}

func (o removeOp) undo(d *Diagram) {
	for _, e := range o.removed {
		d.elements[e.ID] = e
	}
	d.order = slices.Clone(o.order)
}

func (o removeOp) redo(d *Diagram) {
	for _, e := range o.removed {
		delete(d.elements, e.ID)
	}
	d.order = filterOrder(o.order, o.removed)
}

// translate must be called with d.mu held.
func (d *Diagram) translate(ids []string, delta Point) {
	for _, id := range ids {
		if e, ok := d.elements[id]; ok {
			e.Bounds = e.Bounds.Translate(delta)
		}
	}
}

func filterOrder(order []string, removed []*Element) []string {
	gone := make(map[string]bool, len(removed))
	for _, e := range removed {
		gone[e.ID] = true
	}
	out := make([]string, 0, len(order))
	for _, id := range order {
		if !gone[id] {
			out = append(out, id)
		}
	}
	return out
}

// =============================================================================
// Modeling
// =============================================================================

// MoveElements translates elements by delta and fires one elements.moved for
// the batch followed by element.moved for each moved element. Connections in
// the batch are skipped; their geometry follows their endpoints.
//
// The diagram never re-parents or resizes, so opts is accepted for interface
// compatibility only.
func (d *Diagram) MoveElements(elements []*Element, delta Point, opts MoveOptions) error {
	_, err := d.moveElements("", elements, delta)
	return err
}

func (d *Diagram) moveElements(id string, elements []*Element, delta Point) (string, error) {
	return d.execute(id, func(c *compound) error {
		var moved []*Element
		var ids []string
		d.mu.Lock()
		for _, e := range elements {
			live, ok := d.elements[e.ID]
			if !ok {
				d.mu.Unlock()
				return ErrUnknownElement
			}
			if live.IsConnection() {
				continue
			}
			moved = append(moved, live)
			ids = append(ids, live.ID)
		}
		if len(ids) == 0 || delta.IsZero() {
			d.mu.Unlock()
			return nil
		}
		d.translate(ids, delta)
		c.ops = append(c.ops, moveOp{ids: ids, delta: delta})
		d.mu.Unlock()

		d.Fire(Event{Name: EventElementsMoved, CommandID: c.id, Elements: moved, Delta: delta})
		for _, e := range moved {
			d.Fire(Event{Name: EventElementMoved, CommandID: c.id, Elements: []*Element{e}, Delta: delta})
		}
		return nil
	})
}

// UpdateProperties merges props into the element's property bag. A nil value
// removes the key.
func (d *Diagram) UpdateProperties(element *Element, props Properties) error {
	_, err := d.execute("", func(c *compound) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		live, ok := d.elements[element.ID]
		if !ok {
			return ErrUnknownElement
		}
		before := live.Props.Clone()
		after := before.Clone()
		for k, v := range props {
			if v == nil {
				delete(after, k)
				continue
			}
			after[k] = v
		}
		canonicalKind(after)
		if maps.Equal(before, after) {
			return nil
		}
		live.Props = after
		c.ops = append(c.ops, propsOp{id: live.ID, before: before, after: after.Clone()})
		return nil
	})
	return err
}

// =============================================================================
// Gestures
// =============================================================================

// Move is the user-gesture entry point for moving elements. The rules for
// elements.move (and shape.move, for a single shape) are consulted with a
// fresh command ID; unless they deny, the move is executed as one compound
// command. Defer means the engine default, which is to allow.
func (d *Diagram) Move(ids []string, delta Point) (Decision, error) {
	elements, err := d.resolve(ids)
	if err != nil {
		return Defer, err
	}
	ctx := RuleContext{CommandID: d.newID(), Action: ActionElementsMove, Elements: elements, Delta: delta}
	dec := d.Evaluate(ctx)
	if dec != Deny && len(elements) == 1 && elements[0].IsShape() {
		ctx.Action = ActionShapeMove
		if d.Evaluate(ctx) == Deny {
			dec = Deny
		}
	}
	if dec == Deny {
		return Deny, nil
	}
	if _, err := d.moveElements(ctx.CommandID, elements, delta); err != nil {
		return dec, err
	}
	return dec, nil
}

// Delete is the user-gesture entry point for deleting elements. Connections
// attached to a deleted shape are removed with it.
func (d *Diagram) Delete(ids []string) (Decision, error) {
	elements, err := d.resolve(ids)
	if err != nil {
		return Defer, err
	}
	ctx := RuleContext{CommandID: d.newID(), Action: ActionElementsDelete, Elements: elements}
	dec := d.Evaluate(ctx)
	if dec == Deny {
		return Deny, nil
	}
	_, err = d.removeElements(ctx.CommandID, ids)
	return dec, err
}

// RemoveElements deletes elements without consulting rules. Connections
// attached to a removed shape are removed with it.
func (d *Diagram) RemoveElements(ids []string) error {
	if _, err := d.resolve(ids); err != nil {
		return err
	}
	_, err := d.removeElements("", ids)
	return err
}

func (d *Diagram) removeElements(id string, ids []string) (string, error) {
	return d.execute(id, func(c *compound) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		gone := make(map[string]bool, len(ids))
		for _, id := range ids {
			gone[id] = true
		}
		for _, e := range d.elements {
			if e.IsConnection() && (gone[e.Source] || gone[e.Target]) {
				gone[e.ID] = true
			}
		}
		var removed []*Element
		for _, id := range d.order {
			if gone[id] {
				removed = append(removed, d.elements[id])
			}
		}
		if len(removed) == 0 {
			return nil
		}
		o := removeOp{removed: removed, order: d.order}
		o.redo(d)
		c.ops = append(c.ops, o)
		return nil
	})
}
