// Package autolayout arranges the children of a composite container in a
// single left-to-right row of fixed-width slots.
package autolayout

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er/containment"
	"github.com/matzehuels/erkit/pkg/errors"
	"github.com/matzehuels/erkit/pkg/observability"
)

// Default layout parameters.
const (
	DefaultMargin    = 10.0
	DefaultSlotWidth = 60.0
	DefaultSpacing   = 8.0
)

// Config holds the slot geometry. Zero fields take the defaults.
type Config struct {
	Margin    float64 `toml:"margin"`
	SlotWidth float64 `toml:"slot_width"`
	Spacing   float64 `toml:"spacing"`
}

// WithDefaults returns a copy of c with zero fields set to the defaults.
func (c Config) WithDefaults() Config {
	if c.Margin == 0 {
		c.Margin = DefaultMargin
	}
	if c.SlotWidth == 0 {
		c.SlotWidth = DefaultSlotWidth
	}
	if c.Spacing == 0 {
		c.Spacing = DefaultSpacing
	}
	return c
}

// Result reports what Arrange did.
type Result struct {
	Moved   []string
	Skipped []string
}

// Engine arranges container children.
type Engine struct {
	cfg      Config
	analyzer *containment.Analyzer
	modeling diagram.Modeling
	logger   *log.Logger
	hooks    observability.MoveHooks
}

// New creates a layout engine.
func New(cfg Config, analyzer *containment.Analyzer, modeling diagram.Modeling, logger *log.Logger, hooks observability.MoveHooks) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if hooks == nil {
		hooks = observability.NoopMoveHooks{}
	}
	return &Engine{cfg: cfg.WithDefaults(), analyzer: analyzer, modeling: modeling, logger: logger, hooks: hooks}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Arrange lines up the geometric children of container in ascending x order.
// Child i is placed at container.X + Margin + i*(SlotWidth+Spacing); y is
// never changed. Slots whose right edge would cross the container's inner
// right edge are not used. When there are more children than slots, children
// already sitting exactly on a slot keep it, the free slots are filled in
// x order and the rest are skipped with their positions unchanged. Children
// already in place issue no command, so a second call without intervening
// changes is a no-op.
//
// All moves of one call form a single undo step when the engine supports
// batching. A failed move is logged and the child is reported as skipped.
func (e *Engine) Arrange(container *diagram.Element) Result {
	var res Result
	if container == nil {
		return res
	}
	start := time.Now()

	children := e.analyzer.GeometricChildren(container)
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Bounds.X != children[j].Bounds.X {
			return children[i].Bounds.X < children[j].Bounds.X
		}
		return children[i].ID < children[j].ID
	})
	slots := e.slots(container)
	placed := children
	if len(children) > len(slots) {
		placed = keepOccupied(children, slots)
	}

	e.batch(func() {
		for i, child := range placed {
			if i >= len(slots) {
				e.logger.Debug("child does not fit", "container", container.ID, "child", child.ID, "slot", i)
				res.Skipped = append(res.Skipped, child.ID)
				continue
			}
			dx := slots[i] - child.Bounds.X
			if dx == 0 {
				continue
			}
			if err := e.move(child, dx); err != nil {
				e.logger.Warn("arrange move failed", "container", container.ID, "child", child.ID, "err", err)
				res.Skipped = append(res.Skipped, child.ID)
				continue
			}
			res.Moved = append(res.Moved, child.ID)
		}
	})

	e.hooks.OnArrange(context.Background(), container.ID, len(res.Moved), len(res.Skipped), time.Since(start))
	if len(res.Moved) > 0 || len(res.Skipped) > 0 {
		e.logger.Info("arranged children",
			"container", container.ID,
			"moved", len(res.Moved),
			"skipped", len(res.Skipped))
	}
	return res
}

// slots returns the x of every slot that fits inside container.
func (e *Engine) slots(container *diagram.Element) []float64 {
	var xs []float64
	startX := container.Bounds.X + e.cfg.Margin
	limit := container.Bounds.Right() - e.cfg.Margin
	step := e.cfg.SlotWidth + e.cfg.Spacing
	for i := 0; ; i++ {
		x := startX + float64(i)*step
		if x+e.cfg.SlotWidth > limit || (i > 0 && step <= 0) {
			return xs
		}
		xs = append(xs, x)
	}
}

// keepOccupied assigns children (sorted by x) to slots when they outnumber
// them. The first child found exactly on a slot keeps it; the remaining
// children fill the free slots in order and overflow past the last slot.
func keepOccupied(children []*diagram.Element, slots []float64) []*diagram.Element {
	out := make([]*diagram.Element, len(slots), len(children))
	var rest []*diagram.Element
	for _, child := range children {
		i := slices.Index(slots, child.Bounds.X)
		if i >= 0 && out[i] == nil {
			out[i] = child
			continue
		}
		rest = append(rest, child)
	}
	for i := range out {
		if out[i] == nil && len(rest) > 0 {
			out[i], rest = rest[0], rest[1:]
		}
	}
	return append(out, rest...)
}

func (e *Engine) batch(fn func()) {
	b, ok := e.modeling.(diagram.Batcher)
	if !ok {
		fn()
		return
	}
	_ = b.Batch(func() error {
		fn()
		return nil
	})
}

func (e *Engine) move(child *diagram.Element, dx float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.PanicError(errors.ErrCodeInternal, r, "move %s", child.ID)
		}
	}()
	return e.modeling.MoveElements([]*diagram.Element{child}, diagram.Point{X: dx}, diagram.MoveOptions{})
}
