package dot

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er/classify"
	"github.com/matzehuels/erkit/pkg/errors"
)

// pointsPerInch converts diagram coordinates (points) to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Detailed adds data types and cardinalities to labels.
	Detailed bool
	// Free lets the layout engine place shapes instead of pinning them to
	// their diagram positions.
	Free bool
}

// drawFunc returns the Graphviz node attributes for an element of one kind.
type drawFunc func(e *diagram.Element, props diagram.Properties, opts Options) []string

var drawers = map[diagram.Kind]drawFunc{
	diagram.KindEntity:             drawEntity,
	diagram.KindRelationship:       drawRelationship,
	diagram.KindAttribute:          drawAttribute,
	diagram.KindCompositeAttribute: drawComposite,
}

// ToDOT converts the elements of reg into Graphviz DOT source. Shapes become
// nodes drawn by their ER kind; connections become undirected edges.
// Unless opts.Free is set, every node is pinned to its diagram position so
// the output is meant for the neato engine (see [RenderSVG]).
func ToDOT(reg diagram.Registry, c *classify.Classifier, opts Options) (string, error) {
	all, err := reg.All()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "enumerate elements")
	}
	sorted := append([]*diagram.Element(nil), all...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var buf bytes.Buffer
	buf.WriteString("graph ER {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=12, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	for _, e := range sorted {
		if e.IsConnection() || !e.IsShape() {
			continue
		}
		r := c.Resolve(e)
		draw, ok := drawers[r.Kind]
		if !ok {
			draw = drawUnknown
		}
		attrs := draw(e, r.Props, opts)
		attrs = append(attrs, geometry(e, opts)...)
		fmt.Fprintf(&buf, "  %q [%s];\n", e.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range sorted {
		if !e.IsConnection() {
			continue
		}
		attrs := drawConnection(c.Resolve(e).Props, opts)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func geometry(e *diagram.Element, opts Options) []string {
	b := e.Bounds
	attrs := []string{
		fmt.Sprintf("width=%s", inches(b.Width)),
		fmt.Sprintf("height=%s", inches(b.Height)),
		"fixedsize=true",
	}
	if !opts.Free {
		// Graphviz y grows upwards; node positions are centers.
		cx := b.X + b.Width/2
		cy := -(b.Y + b.Height/2)
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", inches(cx), inches(cy)))
	}
	return attrs
}

func inches(points float64) string {
	return fmt.Sprintf("%.3f", points/pointsPerInch)
}

func label(e *diagram.Element, props diagram.Properties) string {
	if name := props.String(diagram.PropName); name != "" {
		return name
	}
	return e.ID
}

func drawEntity(e *diagram.Element, props diagram.Properties, _ Options) []string {
	attrs := []string{"shape=box", fmt.Sprintf("label=%q", label(e, props))}
	if props.Bool(diagram.PropIsWeak) {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func drawRelationship(e *diagram.Element, props diagram.Properties, _ Options) []string {
	attrs := []string{"shape=diamond", fmt.Sprintf("label=%q", label(e, props))}
	if props.Bool(diagram.PropIsIdentifying) {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func drawAttribute(e *diagram.Element, props diagram.Properties, opts Options) []string {
	text := label(e, props)
	if opts.Detailed {
		if dt := props.String(diagram.PropDataType); dt != "" {
			text += ": " + dt
		}
	}
	var attrs []string
	if props.Bool(diagram.PropIsPrimaryKey) {
		attrs = append(attrs, "shape=ellipse", fmt.Sprintf("label=<<U>%s</U>>", htmlEscape(text)))
	} else {
		attrs = append(attrs, "shape=ellipse", fmt.Sprintf("label=%q", text))
	}
	if props.Bool(diagram.PropIsMultivalued) {
		attrs = append(attrs, "peripheries=2")
	}
	if props.Bool(diagram.PropIsDerived) {
		attrs = append(attrs, "style=\"filled,dashed\"")
	}
	return attrs
}

// drawComposite draws a composite container as a rounded frame; its children
// are drawn on top of it at their own positions.
func drawComposite(e *diagram.Element, props diagram.Properties, opts Options) []string {
	if !props.Bool(diagram.PropIsComposite) {
		return drawAttribute(e, props, opts)
	}
	return []string{
		"shape=box",
		"style=\"rounded,filled\"",
		"fillcolor=\"#f4f6fb\"",
		"labelloc=t",
		fmt.Sprintf("label=%q", label(e, props)),
	}
}

func drawUnknown(e *diagram.Element, _ diagram.Properties, _ Options) []string {
	return []string{"shape=note", "fillcolor=\"#fffbe6\"", fmt.Sprintf("label=%q", e.ID)}
}

func drawConnection(props diagram.Properties, opts Options) []string {
	var attrs []string
	if props.Bool(diagram.PropIsParentChild) || props.Bool(diagram.PropIsCompositeContainment) {
		attrs = append(attrs, "style=dashed", "color=grey40")
	}
	if opts.Detailed {
		if s := props.String(diagram.PropCardinalitySource); s != "" {
			attrs = append(attrs, fmt.Sprintf("taillabel=%q", s))
		}
		if t := props.String(diagram.PropCardinalityTarget); t != "" {
			attrs = append(attrs, fmt.Sprintf("headlabel=%q", t))
		}
	}
	return attrs
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return r.Replace(s)
}
