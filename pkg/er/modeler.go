package er

import (
	stderrors "errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/config"
	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er/attrsync"
	"github.com/matzehuels/erkit/pkg/er/autolayout"
	"github.com/matzehuels/erkit/pkg/er/classify"
	"github.com/matzehuels/erkit/pkg/er/containment"
	"github.com/matzehuels/erkit/pkg/er/groupmove"
	"github.com/matzehuels/erkit/pkg/er/rules"
	"github.com/matzehuels/erkit/pkg/errors"
	"github.com/matzehuels/erkit/pkg/observability"
)

// Options configures a Modeler. The zero value uses the defaults of
// config.Default, log.Default and no-op hooks.
type Options struct {
	Config *config.Config
	Logger *log.Logger
	Hooks  observability.Hooks
}

// Modeler is the ER core bound to one diagram engine.
type Modeler struct {
	engine diagram.Engine
	logger *log.Logger

	classifier  *classify.Classifier
	analyzer    *containment.Analyzer
	rules       *rules.Engine
	coordinator *groupmove.Coordinator
	layout      *autolayout.Engine
	sync        *attrsync.Service
}

// New builds the ER components for engine, registers the movement rules and
// subscribes the group-move coordinator.
func New(engine diagram.Engine, opts Options) *Modeler {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	hooks := opts.Hooks.WithDefaults()

	m := &Modeler{engine: engine, logger: logger}
	m.classifier = classify.New(cfg.Sync.Aliases, logger)
	m.analyzer = containment.New(engine, m.classifier, cfg.Layout.Margin, logger)
	m.rules = rules.New(m.analyzer, logger, hooks.Rules)
	m.coordinator = groupmove.New(m.analyzer, engine, logger, hooks.Moves)
	m.layout = autolayout.New(autolayout.Config{
		Margin:    cfg.Layout.Margin,
		SlotWidth: cfg.Layout.SlotWidth,
		Spacing:   cfg.Layout.Spacing,
	}, m.analyzer, engine, logger, hooks.Moves)
	m.sync = attrsync.New(m.classifier, logger, hooks.Sync)

	m.rules.Register(engine, priorityOr(cfg.Rules.Priority, rules.DefaultPriority))
	m.coordinator.Subscribe(engine, priorityOr(cfg.Rules.MovePriority, groupmove.DefaultPriority))
	engine.On(diagram.EventShapeAdded, 0, m.handleAdded)
	engine.On(diagram.EventConnectionAdded, 0, m.handleAdded)
	return m
}

func priorityOr(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}

// Engine returns the diagram engine the modeler is bound to.
func (m *Modeler) Engine() diagram.Engine { return m.engine }

// Classifier returns the element classifier.
func (m *Modeler) Classifier() *classify.Classifier { return m.classifier }

// Analyzer returns the containment analyzer.
func (m *Modeler) Analyzer() *containment.Analyzer { return m.analyzer }

// Rules returns the movement rule engine.
func (m *Modeler) Rules() *rules.Engine { return m.rules }

// Coordinator returns the group-move coordinator.
func (m *Modeler) Coordinator() *groupmove.Coordinator { return m.coordinator }

// Layout returns the auto-layout engine.
func (m *Modeler) Layout() *autolayout.Engine { return m.layout }

// Sync returns the attribute sync service.
func (m *Modeler) Sync() *attrsync.Service { return m.sync }

// =============================================================================
// Panel Operations
// =============================================================================

// IsContained reports whether e is held by any composite container. A
// connection is contained when both of its endpoints share a container.
func (m *Modeler) IsContained(e *diagram.Element) bool {
	if e != nil && e.IsConnection() {
		_, ok := m.analyzer.SharedContainer(e)
		return ok
	}
	return m.analyzer.IsContainedAnywhere(e)
}

// CanConvertToComposite reports whether e may become (or stay) a composite
// container: it must be an attribute and must not itself sit inside a
// container.
func (m *Modeler) CanConvertToComposite(e *diagram.Element) bool {
	if e == nil {
		return false
	}
	switch m.classifier.Classify(e) {
	case diagram.KindAttribute, diagram.KindCompositeAttribute:
	default:
		return false
	}
	return !m.analyzer.IsContainedAnywhere(e)
}

// ReorganizeChildren arranges the children of the container with the given ID.
func (m *Modeler) ReorganizeChildren(containerID string) (autolayout.Result, error) {
	c, err := m.container(containerID)
	if err != nil {
		return autolayout.Result{}, err
	}
	return m.layout.Arrange(c), nil
}

// Children returns the children of the container with the given ID.
func (m *Modeler) Children(containerID string) ([]*diagram.Element, error) {
	c, err := m.container(containerID)
	if err != nil {
		return nil, err
	}
	return m.analyzer.FindChildren(c), nil
}

// SetComposite turns the isComposite flag of an attribute on or off. Turning
// it on also marks the element as a CompositeAttribute. Turning it off is
// refused while the container still has children; the flag is never cleared
// automatically.
func (m *Modeler) SetComposite(e *diagram.Element, value bool) error {
	if e == nil {
		return errors.New(errors.ErrCodeInvalidInput, "element is required")
	}
	if value {
		if !m.CanConvertToComposite(e) {
			return errors.New(errors.ErrCodeInvalidInput, "%s cannot become a composite attribute", e.ID)
		}
		return m.engine.UpdateProperties(e, diagram.Properties{
			diagram.PropKind:        diagram.KindCompositeAttribute.String(),
			diagram.PropIsComposite: true,
		})
	}
	if !m.classifier.IsCompositeContainer(e) {
		return nil
	}
	if n := len(m.analyzer.FindChildren(e)); n > 0 {
		return errors.New(errors.ErrCodeCompositeLocked, "%s still holds %d children", e.ID, n)
	}
	return m.engine.UpdateProperties(e, diagram.Properties{diagram.PropIsComposite: false})
}

func (m *Modeler) container(id string) (*diagram.Element, error) {
	c, err := m.engine.Get(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "element %s", id)
	}
	if !m.analyzer.IsContainer(c) {
		return nil, errors.New(errors.ErrCodeNotContainer, "%s is not a composite container", id)
	}
	return c, nil
}

// =============================================================================
// Gestures
// =============================================================================

// Move runs a user move gesture through the engine. The engine must
// implement diagram.Gestures.
func (m *Modeler) Move(ids []string, delta diagram.Point) (diagram.Decision, error) {
	g, err := m.gestures()
	if err != nil {
		return diagram.Defer, err
	}
	dec, err := g.Move(ids, delta)
	return dec, m.gestureErr(err, ids)
}

// Delete runs a user delete gesture through the engine. The engine must
// implement diagram.Gestures.
func (m *Modeler) Delete(ids []string) (diagram.Decision, error) {
	g, err := m.gestures()
	if err != nil {
		return diagram.Defer, err
	}
	dec, err := g.Delete(ids)
	return dec, m.gestureErr(err, ids)
}

func (m *Modeler) gestures() (diagram.Gestures, error) {
	g, ok := m.engine.(diagram.Gestures)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "engine %T does not accept gestures", m.engine)
	}
	return g, nil
}

func (m *Modeler) gestureErr(err error, ids []string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, diagram.ErrUnknownElement):
		return errors.Wrap(errors.ErrCodeNotFound, err, "elements %v", ids)
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "gesture on %v", ids)
	}
}

// =============================================================================
// Serialization Boundary
// =============================================================================

// Export writes the attribute bag of every element from its live properties
// and returns the number of elements exported.
func (m *Modeler) Export() (int, error) {
	all, err := m.engine.All()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "enumerate elements")
	}
	for _, e := range all {
		m.sync.Apply(e)
	}
	return len(all), nil
}

// Import hydrates the live properties of every element from its attribute
// bag and returns the number of elements updated.
func (m *Modeler) Import() (int, error) {
	all, err := m.engine.All()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "enumerate elements")
	}
	n := 0
	for _, e := range all {
		if len(e.Attrs) == 0 {
			continue
		}
		props := m.sync.ImportProperties(e)
		if len(props) == 0 {
			continue
		}
		if err := m.engine.UpdateProperties(e, props); err != nil {
			return n, errors.Wrap(errors.ErrCodeInternal, err, "update %s", e.ID)
		}
		n++
	}
	return n, nil
}

// handleAdded hydrates elements that arrive with an attribute bag but no
// live properties.
func (m *Modeler) handleAdded(ev diagram.Event) {
	for _, e := range ev.Elements {
		if len(e.Props) > 0 || len(e.Attrs) == 0 {
			continue
		}
		if err := m.sync.Hydrate(m.engine, e); err != nil {
			m.logger.Warn("hydrate failed", "element", e.ID, "err", err)
		}
	}
}
