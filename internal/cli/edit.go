package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/errors"
)

// moveCommand applies a rule-gated move gesture and saves the diagram.
func (c *CLI) moveCommand() *cobra.Command {
	var dx, dy float64
	var output string

	cmd := &cobra.Command{
		Use:   "move [file] [id...]",
		Short: "Move elements; composite containers carry their children",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			dec, err := m.Move(args[1:], diagram.Point{X: dx, Y: dy})
			if err != nil {
				return err
			}
			printDecision(c.out, "move", dec.String())
			if dec == diagram.Deny {
				return nil
			}
			path, err := c.save(m, args[0], output)
			if err != nil {
				return err
			}
			printFile(c.out, path)
			return nil
		},
	}

	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal delta")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical delta")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

// deleteCommand applies a rule-gated delete gesture and saves the diagram.
func (c *CLI) deleteCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "delete [file] [id...]",
		Short: "Delete elements; contained children cannot be deleted",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			dec, err := m.Delete(args[1:])
			if err != nil {
				return err
			}
			printDecision(c.out, "delete", dec.String())
			if dec == diagram.Deny {
				return nil
			}
			path, err := c.save(m, args[0], output)
			if err != nil {
				return err
			}
			printFile(c.out, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

// arrangeCommand reorganizes the children of one or all containers.
func (c *CLI) arrangeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "arrange [file] [container-id...]",
		Short: "Lay out container children left to right",
		Long:  "Lay out the children of the given composite containers, or of every container when no ID is given.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			ids := args[1:]
			if len(ids) == 0 {
				for _, ct := range m.Analyzer().Containers() {
					ids = append(ids, ct.ID)
				}
			}
			for _, id := range ids {
				res, err := m.ReorganizeChildren(id)
				if err != nil {
					return err
				}
				printInfo(c.out, "%s", id)
				printStats(c.out, fmt.Sprintf("%d moved", len(res.Moved)), fmt.Sprintf("%d skipped", len(res.Skipped)))
				for _, s := range res.Skipped {
					printWarning(c.out, "%s does not fit in %s", s, id)
				}
			}
			path, err := c.save(m, args[0], output)
			if err != nil {
				return err
			}
			printFile(c.out, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

// compositeCommand sets or clears the composite flag of an attribute.
func (c *CLI) compositeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "composite [file] [id] [true|false]",
		Short: "Convert an attribute to a composite container or back",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[2])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "composite value")
			}
			m, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			e, err := m.Engine().Get(args[1])
			if err != nil {
				return errors.Wrap(errors.ErrCodeNotFound, err, "element %s", args[1])
			}
			if err := m.SetComposite(e, value); err != nil {
				return err
			}
			printSuccess(c.out, "%s composite=%t", e.ID, value)
			path, err := c.save(m, args[0], output)
			if err != nil {
				return err
			}
			printFile(c.out, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}
