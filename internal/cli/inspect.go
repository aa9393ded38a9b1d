package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er"
)

// inspectCommand prints every element of a diagram as a table.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "List elements with their ER kind and containment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			rows, err := inspectRows(m)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, StyleTitle.Render(args[0]))
			fmt.Fprintln(c.out, renderTable([]string{"ID", "Kind", "Bounds", "Container", "Properties"}, rows))
			printStats(c.out, fmt.Sprintf("%d elements", len(rows)), fmt.Sprintf("%d containers", len(m.Analyzer().Containers())))
			return nil
		},
	}
}

func inspectRows(m *er.Modeler) ([][]string, error) {
	all, err := m.Engine().All()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(all))
	for _, e := range all {
		rows = append(rows, []string{
			e.ID,
			m.Classifier().Classify(e).String(),
			formatBounds(e),
			containerOf(m, e),
			formatProps(e.Props),
		})
	}
	return rows, nil
}

func containerOf(m *er.Modeler, e *diagram.Element) string {
	var c *diagram.Element
	var ok bool
	if e.IsConnection() {
		c, ok = m.Analyzer().SharedContainer(e)
	} else {
		c, ok = m.Analyzer().ContainerOf(e)
	}
	if !ok {
		return "-"
	}
	return c.ID
}

func formatBounds(e *diagram.Element) string {
	if e.IsConnection() {
		return e.Source + " " + iconArrow + " " + e.Target
	}
	b := e.Bounds
	return fmt.Sprintf("%g,%g %gx%g", b.X, b.Y, b.Width, b.Height)
}

// formatProps renders the live properties except the kind, sorted by key.
func formatProps(p diagram.Properties) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k != diagram.PropKind {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, " ")
}
