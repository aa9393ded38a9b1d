// Package attrsync keeps an element's live properties and its persisted,
// namespace-qualified attribute bag consistent.
//
// Export writes every property of the element's kind under each configured
// alias ("er:isWeak" and "ns0:isWeak", ...). Import reads the first alias
// present and coerces boolean fields from "true"/"false". The kind itself is
// only written when the element carries one; connections classified by type
// stay untagged. For every kind, ImportProperties(ExportAttributes(e))
// reproduces e's properties once erType holds the canonical kind name, which
// the diagram enforces on every write.
//
// Values that do not fit the kind's schema are reported as sync mismatches
// (logged and passed to the SyncHooks) and skipped; the rest of the bag is
// still processed.
package attrsync

import (
	"context"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er/classify"
	"github.com/matzehuels/erkit/pkg/errors"
	"github.com/matzehuels/erkit/pkg/observability"
)

// Service converts between properties and attribute bags.
type Service struct {
	classifier *classify.Classifier
	logger     *log.Logger
	hooks      observability.SyncHooks
}

// New creates a sync service. The classifier determines the aliases.
func New(classifier *classify.Classifier, logger *log.Logger, hooks observability.SyncHooks) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if hooks == nil {
		hooks = observability.NoopSyncHooks{}
	}
	return &Service{classifier: classifier, logger: logger, hooks: hooks}
}

// ExportAttributes projects e's live properties onto a fresh attribute bag.
// Attributes outside the configured namespaces are carried over unchanged.
// Elements of unknown kind only keep those foreign attributes.
func (s *Service) ExportAttributes(e *diagram.Element) diagram.Attrs {
	out := diagram.Attrs{}
	if e == nil {
		return out
	}
	for k, v := range e.Attrs {
		if _, _, ok := s.classifier.SplitKey(k); !ok {
			out[k] = v
		}
	}
	kind := s.classifier.Classify(e)
	if !kind.IsER() {
		return out
	}

	put := func(prop, value string) {
		for _, alias := range s.classifier.Aliases() {
			out[classify.Key(alias, prop)] = value
		}
	}
	if _, tagged := e.Props[diagram.PropKind]; tagged || s.hasKind(e.Attrs) {
		put(diagram.PropKind, kind.String())
	}

	written := 0
	for prop, v := range e.Props {
		if prop == diagram.PropKind {
			continue
		}
		f, ok := field(kind, prop)
		if !ok {
			s.mismatch(e, kind, prop, "property has no attribute slot")
			continue
		}
		value, ok := format(f, v)
		if !ok {
			s.mismatch(e, kind, prop, "property value has the wrong type")
			continue
		}
		put(prop, value)
		written++
	}
	s.hooks.OnExport(context.Background(), kind.String(), written)
	return out
}

// ImportProperties decodes e's attribute bag into live properties. The kind
// is read from the bag first and falls back to the element's classification.
func (s *Service) ImportProperties(e *diagram.Element) diagram.Properties {
	props := diagram.Properties{}
	if e == nil {
		return props
	}
	kind := diagram.KindUnknown
	if v, ok := s.classifier.Lookup(e.Attrs, diagram.PropKind); ok {
		kind = diagram.ParseKind(v)
	}
	if kind.IsER() {
		props[diagram.PropKind] = kind.String()
	} else {
		kind = s.classifier.Classify(e)
	}
	if !kind.IsER() {
		return props
	}

	for _, f := range Schema(kind) {
		raw, ok := s.classifier.Lookup(e.Attrs, f.Name)
		if !ok {
			continue
		}
		v, ok := parse(f, raw)
		if !ok {
			s.mismatch(e, kind, f.Name, "attribute value is not a boolean")
			continue
		}
		props[f.Name] = v
	}

	reported := make(map[string]bool)
	for k := range e.Attrs {
		_, prop, ok := s.classifier.SplitKey(k)
		if !ok || prop == diagram.PropKind || reported[prop] {
			continue
		}
		if _, known := field(kind, prop); !known {
			reported[prop] = true
			s.mismatch(e, kind, prop, "attribute has no property slot")
		}
	}
	imported := len(props)
	if _, ok := props[diagram.PropKind]; ok {
		imported--
	}
	s.hooks.OnImport(context.Background(), kind.String(), imported)
	return props
}

// Apply replaces e's attribute bag with its export.
func (s *Service) Apply(e *diagram.Element) {
	if e == nil {
		return
	}
	e.Attrs = s.ExportAttributes(e)
}

// Hydrate imports e's attribute bag and writes the result through the
// modeling service.
func (s *Service) Hydrate(m diagram.Modeling, e *diagram.Element) error {
	props := s.ImportProperties(e)
	if len(props) == 0 {
		return nil
	}
	return m.UpdateProperties(e, props)
}

func (s *Service) hasKind(attrs diagram.Attrs) bool {
	_, ok := s.classifier.Lookup(attrs, diagram.PropKind)
	return ok
}

func (s *Service) mismatch(e *diagram.Element, kind diagram.Kind, prop, reason string) {
	s.logger.Warn("sync mismatch",
		"code", errors.ErrCodeSyncMismatch,
		"element", e.ID,
		"kind", kind,
		"key", prop,
		"reason", reason)
	s.hooks.OnMismatch(context.Background(), kind.String(), prop)
}

func format(f Field, v any) (string, bool) {
	switch f.Type {
	case Bool:
		b, ok := v.(bool)
		return strconv.FormatBool(b), ok
	default:
		str, ok := v.(string)
		return str, ok
	}
}

func parse(f Field, raw string) (any, bool) {
	if f.Type != Bool {
		return raw, true
	}
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}
