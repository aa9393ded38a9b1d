package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erkit/pkg/diagram"
)

// syncCommand groups attribute synchronization subcommands.
func (c *CLI) syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize persisted attributes and live properties",
	}
	cmd.AddCommand(c.syncExportCommand())
	cmd.AddCommand(c.syncImportCommand())
	return cmd
}

// syncExportCommand rewrites a document with every property under every
// configured alias.
func (c *CLI) syncExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Rewrite attribute bags from live properties under every alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := c.load(args[0])
			if err != nil {
				return err
			}
			path, err := c.save(m, args[0], output)
			if err != nil {
				return err
			}
			all, _ := m.Engine().All()
			printSuccess(c.out, "Exported %d elements", len(all))
			printKeyValue(c.out, "aliases", fmt.Sprint(cfg.Sync.Aliases))
			printFile(c.out, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

// importView is the JSON shape printed by sync import.
type importView struct {
	ID    string             `json:"id"`
	Kind  string             `json:"kind"`
	Props diagram.Properties `json:"props"`
}

// syncImportCommand prints the live properties hydrated from a document.
func (c *CLI) syncImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Print the live properties hydrated from attribute bags as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			all, err := m.Engine().All()
			if err != nil {
				return err
			}
			out := make([]importView, 0, len(all))
			for _, e := range all {
				out = append(out, importView{ID: e.ID, Kind: m.Classifier().Classify(e).String(), Props: e.Props})
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
