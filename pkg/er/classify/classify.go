// Package classify resolves the semantic ER kind of diagram elements.
//
// The kind is read from the live property bag first. Elements that were
// imported but not yet hydrated only carry their persisted attribute bag, in
// which the kind may sit under any of several namespace aliases written by
// different generations of the schema; those are consulted in order of
// preference.
//
// Classification never fails. An element whose kind cannot be resolved is
// KindUnknown, which every downstream rule treats as "not ER, use the engine
// default".
package classify

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/errors"
)

// DefaultAliases are the namespace aliases of the two schema generations, in
// order of preference.
var DefaultAliases = []string{"er", "ns0"}

// Classification is the normalized view of an element: its kind together with
// its semantic properties, wherever they were read from.
type Classification struct {
	Kind  diagram.Kind
	Props diagram.Properties
}

// Classifier resolves element kinds. It is stateless apart from its
// configuration and safe for concurrent use.
type Classifier struct {
	aliases []string
	logger  *log.Logger
}

// New creates a classifier for the given aliases. Empty aliases fall back to
// DefaultAliases; a nil logger falls back to log.Default().
func New(aliases []string, logger *log.Logger) *Classifier {
	if len(aliases) == 0 {
		aliases = DefaultAliases
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{aliases: append([]string(nil), aliases...), logger: logger}
}

// Aliases returns the configured namespace aliases in order of preference.
func (c *Classifier) Aliases() []string { return append([]string(nil), c.aliases...) }

// Key returns the attribute bag key for prop under alias ("er:isWeak").
func Key(alias, prop string) string { return alias + ":" + prop }

// Lookup returns the value of prop from the first alias present in attrs.
func (c *Classifier) Lookup(attrs diagram.Attrs, prop string) (string, bool) {
	for _, a := range c.aliases {
		if v, ok := attrs[Key(a, prop)]; ok {
			return v, true
		}
	}
	return "", false
}

// SplitKey splits a namespaced attribute key into alias and property name.
// ok is false when the key has no known alias prefix.
func (c *Classifier) SplitKey(key string) (alias, prop string, ok bool) {
	alias, prop, found := strings.Cut(key, ":")
	if !found {
		return "", "", false
	}
	for _, a := range c.aliases {
		if a == alias {
			return alias, prop, true
		}
	}
	return "", "", false
}

// Classify returns the ER kind of e.
func (c *Classifier) Classify(e *diagram.Element) diagram.Kind {
	if e == nil {
		return diagram.KindUnknown
	}
	if k := kindFromProp(e.Props[diagram.PropKind]); k.IsER() {
		return k
	}
	if v, ok := c.Lookup(e.Attrs, diagram.PropKind); ok {
		if k := diagram.ParseKind(v); k.IsER() {
			return k
		}
	}
	if e.IsConnection() {
		return diagram.KindConnection
	}
	c.logger.Debug("unresolved element kind",
		"element", e.ID,
		"code", errors.ErrCodeClassificationAmbiguous)
	return diagram.KindUnknown
}

// Resolve returns the kind of e together with its semantic properties. Live
// properties win; when the element has none, the attribute bag is decoded
// with "true"/"false" read as booleans.
func (c *Classifier) Resolve(e *diagram.Element) Classification {
	kind := c.Classify(e)
	if e == nil {
		return Classification{Kind: kind, Props: diagram.Properties{}}
	}
	if len(e.Props) > 0 {
		return Classification{Kind: kind, Props: e.Props.Clone()}
	}
	props := diagram.Properties{}
	// Walk aliases in reverse so preferred aliases overwrite.
	for i := len(c.aliases) - 1; i >= 0; i-- {
		prefix := c.aliases[i] + ":"
		for k, v := range e.Attrs {
			prop, ok := strings.CutPrefix(k, prefix)
			if !ok {
				continue
			}
			switch v {
			case "true":
				props[prop] = true
			case "false":
				props[prop] = false
			default:
				props[prop] = v
			}
		}
	}
	return Classification{Kind: kind, Props: props}
}

// IsCompositeContainer reports whether e is a composite attribute with its
// isComposite flag set.
func (c *Classifier) IsCompositeContainer(e *diagram.Element) bool {
	if e == nil || e.IsConnection() {
		return false
	}
	r := c.Resolve(e)
	return r.Kind == diagram.KindCompositeAttribute && r.Props.Bool(diagram.PropIsComposite)
}

func kindFromProp(v any) diagram.Kind {
	switch k := v.(type) {
	case diagram.Kind:
		return k
	case string:
		return diagram.ParseKind(k)
	default:
		return diagram.KindUnknown
	}
}
