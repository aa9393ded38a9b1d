// Package containment decides which elements are held by composite attribute
// containers.
//
// Containment is established by any of three signals:
//   - the element's Parent reference names the container
//   - the element lies inside the container's bounds, inset by a margin
//   - a connection from the container to the element is flagged
//     isParentChild or isCompositeContainment
//
// Any one signal is sufficient. When the signals point at different
// containers, ContainerOf resolves the conflict: an explicit Parent wins,
// then geometry, then connections. Geometry ranks above connections because
// it is what the user sees.
//
// Registry failures never escape this package. A query that cannot enumerate
// the diagram reports "not contained" and "no children" and logs the failure.
package containment

import (
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er/classify"
	"github.com/matzehuels/erkit/pkg/errors"
)

// DefaultMargin is the inward margin applied to container bounds.
const DefaultMargin = 10.0

// Analyzer answers containment queries against a registry.
type Analyzer struct {
	registry   diagram.Registry
	classifier *classify.Classifier
	margin     float64
	logger     *log.Logger
}

// New creates an analyzer. A nil logger falls back to log.Default().
func New(registry diagram.Registry, classifier *classify.Classifier, margin float64, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{registry: registry, classifier: classifier, margin: margin, logger: logger}
}

// Margin returns the inward margin used by the geometric test.
func (a *Analyzer) Margin() float64 { return a.margin }

// Classifier returns the classifier the analyzer resolves kinds with.
func (a *Analyzer) Classifier() *classify.Classifier { return a.classifier }

// IsContainer reports whether e is a composite container.
func (a *Analyzer) IsContainer(e *diagram.Element) bool {
	return a.classifier.IsCompositeContainer(e)
}

// Geometric reports whether candidate lies entirely inside container's bounds
// inset by the margin.
func (a *Analyzer) Geometric(candidate, container *diagram.Element) bool {
	if container == nil {
		return false
	}
	return a.geometricAt(candidate, container, container.Bounds)
}

func (a *Analyzer) geometricAt(candidate, container *diagram.Element, bounds diagram.Bounds) bool {
	if candidate == nil || candidate.ID == container.ID || !candidate.IsShape() {
		return false
	}
	return bounds.Inset(a.margin).Encloses(candidate.Bounds)
}

// Connected reports whether a parent-child or composite-containment
// connection leads from container to candidate.
func (a *Analyzer) Connected(candidate, container *diagram.Element) bool {
	all, ok := a.all()
	if !ok {
		return false
	}
	return a.connected(all, candidate, container)
}

func (a *Analyzer) connected(all []*diagram.Element, candidate, container *diagram.Element) bool {
	if candidate == nil || container == nil {
		return false
	}
	for _, c := range all {
		if c.IsConnection() && c.Source == container.ID && c.Target == candidate.ID && a.isContainment(c) {
			return true
		}
	}
	return false
}

// IsContained reports whether candidate is contained by container through
// geometry or an explicit connection.
func (a *Analyzer) IsContained(candidate, container *diagram.Element) bool {
	if a.Geometric(candidate, container) {
		return true
	}
	return a.Connected(candidate, container)
}

// ContainerOf returns the composite container that holds e, if any.
func (a *Analyzer) ContainerOf(e *diagram.Element) (*diagram.Element, bool) {
	if e == nil || !e.IsShape() {
		return nil, false
	}
	all, ok := a.all()
	if !ok {
		return nil, false
	}
	return a.containerOf(all, e)
}

func (a *Analyzer) containerOf(all []*diagram.Element, e *diagram.Element) (*diagram.Element, bool) {
	if e.Parent != "" && e.Parent != e.ID {
		for _, c := range all {
			if c.ID == e.Parent && a.IsContainer(c) {
				return c, true
			}
		}
	}
	for _, c := range all {
		if c.ID != e.ID && a.IsContainer(c) && a.Geometric(e, c) {
			return c, true
		}
	}
	for _, c := range all {
		if !c.IsConnection() || c.Target != e.ID || !a.isContainment(c) {
			continue
		}
		for _, src := range all {
			if src.ID == c.Source && src.ID != e.ID && a.IsContainer(src) {
				return src, true
			}
		}
	}
	return nil, false
}

// IsContainedAnywhere reports whether e is held by any composite container.
func (a *Analyzer) IsContainedAnywhere(e *diagram.Element) bool {
	_, ok := a.ContainerOf(e)
	return ok
}

// SharedContainer reports the container holding both endpoints of conn. An
// endpoint that is the container itself counts as inside it.
func (a *Analyzer) SharedContainer(conn *diagram.Element) (*diagram.Element, bool) {
	if conn == nil || !conn.IsConnection() {
		return nil, false
	}
	all, ok := a.all()
	if !ok {
		return nil, false
	}
	var src, dst *diagram.Element
	for _, e := range all {
		switch e.ID {
		case conn.Source:
			src = e
		case conn.Target:
			dst = e
		}
	}
	if src == nil || dst == nil {
		return nil, false
	}
	cs, ok := a.containerOrSelf(all, src)
	if !ok {
		return nil, false
	}
	ct, ok := a.containerOrSelf(all, dst)
	if !ok || cs.ID != ct.ID {
		return nil, false
	}
	return cs, true
}

func (a *Analyzer) containerOrSelf(all []*diagram.Element, e *diagram.Element) (*diagram.Element, bool) {
	if c, ok := a.containerOf(all, e); ok {
		return c, true
	}
	if a.IsContainer(e) {
		return e, true
	}
	return nil, false
}

// FindChildren returns every shape held by container through a Parent
// reference, geometry or a containment connection, deduplicated and sorted
// by ID.
func (a *Analyzer) FindChildren(container *diagram.Element) []*diagram.Element {
	if container == nil {
		return nil
	}
	return a.FindChildrenAt(container, container.Bounds)
}

// FindChildrenAt is FindChildren with the geometric test evaluated against
// bounds instead of the container's current bounds. Group moves use it with
// the container's pre-move bounds.
func (a *Analyzer) FindChildrenAt(container *diagram.Element, bounds diagram.Bounds) []*diagram.Element {
	all, ok := a.all()
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []*diagram.Element
	add := func(e *diagram.Element) {
		if e.ID == container.ID || !e.IsShape() || seen[e.ID] {
			return
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	for _, e := range all {
		if e.Parent == container.ID || a.geometricAt(e, container, bounds) {
			add(e)
		}
	}
	for _, c := range all {
		if !c.IsConnection() || c.Source != container.ID || !a.isContainment(c) {
			continue
		}
		for _, e := range all {
			if e.ID == c.Target {
				add(e)
			}
		}
	}
	sortByID(out)
	return out
}

// GeometricChildren returns the shapes inside container's inset bounds,
// sorted by ID.
func (a *Analyzer) GeometricChildren(container *diagram.Element) []*diagram.Element {
	if container == nil {
		return nil
	}
	all, ok := a.all()
	if !ok {
		return nil
	}
	var out []*diagram.Element
	for _, e := range all {
		if a.Geometric(e, container) {
			out = append(out, e)
		}
	}
	sortByID(out)
	return out
}

// Containers returns every composite container in the registry.
func (a *Analyzer) Containers() []*diagram.Element {
	all, ok := a.all()
	if !ok {
		return nil
	}
	var out []*diagram.Element
	for _, e := range all {
		if a.IsContainer(e) {
			out = append(out, e)
		}
	}
	return out
}

func (a *Analyzer) isContainment(conn *diagram.Element) bool {
	p := a.classifier.Resolve(conn).Props
	return p.Bool(diagram.PropIsParentChild) || p.Bool(diagram.PropIsCompositeContainment)
}

func (a *Analyzer) all() (all []*diagram.Element, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("containment query failed",
				"err", errors.PanicError(errors.ErrCodeContainmentQuery, r, "enumerate elements"))
			all, ok = nil, false
		}
	}()
	if a.registry == nil {
		a.logger.Error("containment query failed", "code", errors.ErrCodeContainmentQuery, "reason", "no registry")
		return nil, false
	}
	all, err := a.registry.All()
	if err != nil {
		a.logger.Error("containment query failed",
			"err", errors.Wrap(errors.ErrCodeContainmentQuery, err, "enumerate elements"))
		return nil, false
	}
	return all, true
}

func sortByID(elems []*diagram.Element) {
	slices.SortFunc(elems, func(x, y *diagram.Element) int { return strings.Compare(x.ID, y.ID) })
}
