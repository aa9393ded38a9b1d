package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/erkit/pkg/config"
	"github.com/matzehuels/erkit/pkg/er"
	"github.com/matzehuels/erkit/pkg/errors"
	erio "github.com/matzehuels/erkit/pkg/io"
	"github.com/matzehuels/erkit/pkg/observability"
)

// maxParallelValidations bounds concurrent document loads.
const maxParallelValidations = 8

// validateResult is the outcome of validating one file.
type validateResult struct {
	path       string
	elements   int
	containers int
	mismatches int
	err        error
}

// mismatchCounter counts attribute sync mismatches.
type mismatchCounter struct {
	observability.NoopSyncHooks
	mu sync.Mutex
	n  int
}

func (h *mismatchCounter) OnMismatch(context.Context, string, string) {
	h.mu.Lock()
	h.n++
	h.mu.Unlock()
}

// validateCommand loads every file concurrently and reports problems.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check that diagram documents load cleanly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			results := c.validateFiles(cmd.Context(), cfg, args)

			failed := 0
			for _, r := range results {
				switch {
				case r.err != nil:
					failed++
					printError(c.out, "%s: %s", r.path, errors.UserMessage(r.err))
				case r.mismatches > 0 && strict:
					failed++
					printError(c.out, "%s: %d attribute mismatches", r.path, r.mismatches)
				case r.mismatches > 0:
					printWarning(c.out, "%s: %d attribute mismatches", r.path, r.mismatches)
				default:
					printSuccess(c.out, "%s", r.path)
				}
				if r.err == nil {
					printStats(c.out, fmt.Sprintf("%d elements", r.elements), fmt.Sprintf("%d containers", r.containers))
				}
			}
			if failed > 0 {
				return errors.New(errors.ErrCodeInvalidFormat, "%d of %d documents failed validation", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat attribute mismatches as failures")
	return cmd
}

// validateFiles loads paths concurrently. Results keep the order of paths.
func (c *CLI) validateFiles(ctx context.Context, cfg config.Config, paths []string) []validateResult {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	results := make([]validateResult, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelValidations)
	for i, path := range paths {
		g.Go(func() error {
			hooks := &mismatchCounter{}
			opts := c.modelerOptions(cfg)
			opts.Hooks = observability.Hooks{Sync: hooks}
			r := validateResult{path: path}
			m, err := erio.LoadFile(path, opts)
			if err != nil {
				r.err = err
			} else {
				r.elements, r.containers = countElements(m)
				r.mismatches = hooks.n
			}
			results[i] = r
			logger.Debug("validated", "path", path, "err", r.err)
			return nil
		})
	}
	g.Wait()
	prog.done(fmt.Sprintf("Validated %d documents", len(paths)))
	return results
}

func countElements(m *er.Modeler) (elements, containers int) {
	all, err := m.Engine().All()
	if err != nil {
		return 0, 0
	}
	return len(all), len(m.Analyzer().Containers())
}
