package io

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er"
	"github.com/matzehuels/erkit/pkg/errors"
)

// WriteJSON encodes every element of reg, sorted by ID, with its current
// attribute bag. Live properties are not written; use [Save] to export them
// first.
func WriteJSON(reg diagram.Registry, w io.Writer) error {
	all, err := reg.All()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "enumerate elements")
	}
	out := document{Elements: make([]element, 0, len(all))}
	for _, e := range all {
		el := element{
			ID:     e.ID,
			Type:   string(e.Type),
			Parent: e.Parent,
			Source: e.Source,
			Target: e.Target,
		}
		if !e.IsConnection() {
			el.X, el.Y, el.Width, el.Height = e.Bounds.X, e.Bounds.Y, e.Bounds.Width, e.Bounds.Height
		}
		if len(e.Attrs) > 0 {
			el.Attrs = e.Attrs.Clone()
		}
		out.Elements = append(out.Elements, el)
	}
	sort.Slice(out.Elements, func(i, j int) bool { return out.Elements[i].ID < out.Elements[j].ID })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode")
	}
	return nil
}

// ExportJSON writes reg to a file at path with [WriteJSON].
func ExportJSON(reg diagram.Registry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	return WriteJSON(reg, f)
}

// Save exports live properties into every element's attribute bag and
// encodes the modeler's diagram.
func Save(m *er.Modeler, w io.Writer) error {
	if _, err := m.Export(); err != nil {
		return err
	}
	return WriteJSON(m.Engine(), w)
}

// SaveFile writes the modeler's diagram to path with [Save].
func SaveFile(m *er.Modeler, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	return Save(m, f)
}
