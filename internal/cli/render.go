package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erkit/pkg/cache"
	"github.com/matzehuels/erkit/pkg/errors"
	"github.com/matzehuels/erkit/pkg/render/dot"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatDOT: true, formatSVG: true, formatPDF: true, formatPNG: true}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path (multiple)
	formats  []string // dot, svg, pdf, png
	detailed bool     // cardinality labels on connections
	free     bool     // drop pinned positions and let neato lay out
	scale    float64  // PNG scale factor
	noCache  bool
}

// renderCommand renders a diagram through Graphviz.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram to DOT, SVG, PDF or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label connections with cardinalities")
	cmd.Flags().BoolVar(&opts.free, "free", false, "ignore stored positions and let Graphviz lay out")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")
	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return errors.New(errors.ErrCodeInvalidInput, "invalid format: %s (must be 'dot', 'svg', 'pdf', or 'png')", f)
		}
	}
	return nil
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	m, _, err := c.load(input)
	if err != nil {
		return err
	}
	src, err := dot.ToDOT(m.Engine(), m.Classifier(), dot.Options{Detailed: opts.detailed, Free: opts.free})
	if err != nil {
		return err
	}

	rc, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer rc.Close()
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "cli:")
	dotHash := cache.Hash([]byte(src))

	for _, format := range opts.formats {
		prog := newProgress(logger)
		var data []byte
		if format == formatDOT {
			data = []byte(src)
		} else {
			key := keyer.RenderKey(dotHash, cache.RenderKeyOpts{
				Format: format, Scale: opts.scale, Detailed: opts.detailed, Free: opts.free,
			})
			data, err = cachedRender(ctx, rc, key, func() ([]byte, error) {
				return renderFormat(ctx, src, format, opts.scale)
			})
			if err != nil {
				return err
			}
		}

		path := outputPath(input, opts.output, format, len(opts.formats) > 1)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
		}
		prog.done(fmt.Sprintf("Rendered %s", strings.ToUpper(format)))
		printFile(c.out, path)
	}
	return nil
}

// cachedRender returns the cached artifact for key or renders and stores it.
// Cache failures only cost a re-render.
func cachedRender(ctx context.Context, c cache.Cache, key string, render func() ([]byte, error)) ([]byte, error) {
	logger := loggerFromContext(ctx)
	if data, ok, err := c.Get(ctx, key); err != nil {
		logger.Debug("cache read failed", "err", err)
	} else if ok {
		logger.Debug("cache hit", "key", key)
		return data, nil
	}
	data, err := render()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, data, 0); err != nil {
		logger.Debug("cache write failed", "err", err)
	}
	return data, nil
}

func renderFormat(ctx context.Context, src, format string, scale float64) ([]byte, error) {
	switch format {
	case formatSVG:
		return dot.RenderSVG(ctx, src)
	case formatPDF:
		return dot.RenderPDF(ctx, src)
	case formatPNG:
		return dot.RenderPNG(ctx, src, scale)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported format %s", format)
}

// outputPath derives the file to write. With several formats output is a
// base path and each format gets its extension.
func outputPath(input, output, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base + "." + format
}
