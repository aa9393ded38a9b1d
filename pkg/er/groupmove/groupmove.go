// Package groupmove propagates a composite container's movement to the
// elements it contains.
//
// When the engine reports that a container moved, every child receives the
// container's exact delta in one MoveElements batch. The batch is issued from
// the moved-event handler, i.e. after the primary move has been applied but
// while its command is still open, so engines that group nested commands
// (like diagram.Diagram) record parent and children as a single undo step.
//
// The children's own moved events re-enter the handler. A guard flag scoped
// to the Coordinator instance ignores them; it is released by defer on every
// exit path so a failing move can never leave the group locked.
package groupmove

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er/containment"
	"github.com/matzehuels/erkit/pkg/errors"
	"github.com/matzehuels/erkit/pkg/observability"
)

// DefaultPriority is the priority the moved-event handlers subscribe with.
const DefaultPriority = 1000

// Coordinator moves container children along with their container.
type Coordinator struct {
	analyzer *containment.Analyzer
	modeling diagram.Modeling
	logger   *log.Logger
	hooks    observability.MoveHooks

	moving bool

	handledCmd string
	handled    map[string]bool
}

// New creates a coordinator. A nil logger falls back to log.Default(), nil
// hooks to the no-op implementation.
func New(analyzer *containment.Analyzer, modeling diagram.Modeling, logger *log.Logger, hooks observability.MoveHooks) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	if hooks == nil {
		hooks = observability.NoopMoveHooks{}
	}
	return &Coordinator{analyzer: analyzer, modeling: modeling, logger: logger, hooks: hooks}
}

// Subscribe registers the coordinator for element.moved and elements.moved.
func (c *Coordinator) Subscribe(bus diagram.EventBus, priority int) {
	bus.On(diagram.EventElementsMoved, priority, c.HandleMoved)
	bus.On(diagram.EventElementMoved, priority, c.HandleMoved)
}

// Moving reports whether a group move is in progress.
func (c *Coordinator) Moving() bool { return c.moving }

// HandleMoved reacts to a moved event. Every composite container in the
// event drags its children along, except children that were part of the
// same primary move. A container is handled at most once per command even
// when the engine reports it through several events.
func (c *Coordinator) HandleMoved(ev diagram.Event) {
	if c.moving || ev.Delta.IsZero() {
		return
	}
	moved := make([]string, 0, len(ev.Elements))
	for _, el := range ev.Elements {
		moved = append(moved, el.ID)
	}
	for _, el := range ev.Elements {
		if !c.analyzer.IsContainer(el) || c.seen(ev.CommandID, el.ID) {
			continue
		}
		if err := c.moveGroup(el, ev.Delta, moved); err != nil {
			c.logger.Error("group move failed", "container", el.ID, "err", err)
		}
	}
}

// MoveGroup applies delta to every child of container. container is expected
// to already be at its moved position; children are found against its
// bounds before the move. Elements listed in exclude are left alone.
//
// Errors and panics from the modeling service are returned, never raised;
// the guard is released either way.
func (c *Coordinator) MoveGroup(container *diagram.Element, delta diagram.Point, exclude ...string) error {
	if c.moving {
		return nil
	}
	return c.moveGroup(container, delta, exclude)
}

func (c *Coordinator) moveGroup(container *diagram.Element, delta diagram.Point, exclude []string) (err error) {
	before := container.Bounds.Translate(diagram.Point{X: -delta.X, Y: -delta.Y})
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var children []*diagram.Element
	for _, ch := range c.analyzer.FindChildrenAt(container, before) {
		if !skip[ch.ID] {
			children = append(children, ch)
		}
	}
	if len(children) == 0 {
		return nil
	}

	c.moving = true
	defer func() { c.moving = false }()
	defer func() {
		if r := recover(); r != nil {
			err = errors.PanicError(errors.ErrCodeInternal, r, "move children of %s", container.ID)
		}
		c.hooks.OnGroupMove(context.Background(), container.ID, len(children), err)
	}()

	c.logger.Debug("moving group",
		"container", container.ID,
		"children", len(children),
		"dx", delta.X,
		"dy", delta.Y)
	return c.modeling.MoveElements(children, delta, diagram.MoveOptions{AutoResize: false, Attach: false})
}

// seen records (commandID, containerID) and reports whether it was already
// handled. Events without a command ID are never deduplicated.
func (c *Coordinator) seen(commandID, containerID string) bool {
	if commandID == "" {
		return false
	}
	if commandID != c.handledCmd {
		c.handledCmd = commandID
		c.handled = make(map[string]bool)
	}
	if c.handled[containerID] {
		return true
	}
	c.handled[containerID] = true
	return false
}
