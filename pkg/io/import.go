package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er"
	"github.com/matzehuels/erkit/pkg/errors"
)

type document struct {
	Elements []element `json:"elements"`
}

type element struct {
	ID     string            `json:"id"`
	Type   string            `json:"type,omitempty"`
	X      float64           `json:"x"`
	Y      float64           `json:"y"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
	Parent string            `json:"parent,omitempty"`
	Source string            `json:"source,omitempty"`
	Target string            `json:"target,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func (e element) isConnection() bool {
	return e.Type == string(diagram.TypeConnection) || (e.Type == "" && (e.Source != "" || e.Target != ""))
}

// ReadJSON decodes a document from r into a new diagram. Shapes are added
// before connections so that connections may precede their endpoints in the
// file. Elements carry their attribute bags only; use [Load] to hydrate live
// properties as well.
//
// ReadJSON returns an INVALID_FORMAT error for malformed JSON, invalid or
// duplicate IDs and connections with unknown endpoints. It does not close r.
func ReadJSON(r io.Reader) (*diagram.Diagram, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}

	d := diagram.New()
	add := func(e element) error {
		if err := errors.ValidateID(e.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "element %q", e.ID)
		}
		el := &diagram.Element{
			ID:     e.ID,
			Type:   diagram.ElementType(e.Type),
			Bounds: diagram.Bounds{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height},
			Parent: e.Parent,
			Source: e.Source,
			Target: e.Target,
			Attrs:  diagram.Attrs(e.Attrs),
		}
		if err := d.AddElement(el); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "element %s", e.ID)
		}
		return nil
	}
	for _, e := range doc.Elements {
		if !e.isConnection() {
			if err := add(e); err != nil {
				return nil, err
			}
		}
	}
	for _, e := range doc.Elements {
		if e.isConnection() {
			if err := add(e); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// ImportJSON reads the document at path with [ReadJSON].
func ImportJSON(path string) (*diagram.Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Load decodes a document, binds an ER modeler to it and hydrates every
// element's live properties from its attribute bag. The hydration is not
// recorded in the undo history.
func Load(r io.Reader, opts er.Options) (*er.Modeler, error) {
	d, err := ReadJSON(r)
	if err != nil {
		return nil, err
	}
	m := er.New(d, opts)
	if _, err := m.Import(); err != nil {
		return nil, err
	}
	d.ClearHistory()
	return m, nil
}

// LoadFile opens path and calls [Load].
func LoadFile(path string, opts er.Options) (*er.Modeler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	m, err := Load(f, opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return m, nil
}
