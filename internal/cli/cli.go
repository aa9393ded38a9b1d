package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/erkit/pkg/buildinfo"
	"github.com/matzehuels/erkit/pkg/cache"
	"github.com/matzehuels/erkit/pkg/config"
	"github.com/matzehuels/erkit/pkg/er"
	erio "github.com/matzehuels/erkit/pkg/io"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "erkit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	configPath string
	verbose    bool
}

// New creates a new CLI instance. Logs go to w; command output goes to
// stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "erkit edits entity-relationship diagrams",
		Long:         `erkit loads ER diagram documents, enforces composite-attribute containment, arranges container children and keeps persisted attributes in sync with live properties.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/erkit/erkit.toml)")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.compositeCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Loading
// =============================================================================

// loadConfig resolves the --config flag.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Resolve(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "aliases", cfg.Sync.Aliases)
	return cfg, nil
}

// modelerOptions builds the options every command binds modelers with.
func (c *CLI) modelerOptions(cfg config.Config) er.Options {
	return er.Options{Config: &cfg, Logger: c.Logger}
}

// load reads a diagram file and binds a modeler to it.
func (c *CLI) load(path string) (*er.Modeler, config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	m, err := erio.LoadFile(path, c.modelerOptions(cfg))
	if err != nil {
		return nil, cfg, err
	}
	return m, cfg, nil
}

// save writes m to output, or back to input when output is empty.
func (c *CLI) save(m *er.Modeler, input, output string) (string, error) {
	if output == "" {
		output = input
	}
	if err := erio.SaveFile(m, output); err != nil {
		return "", err
	}
	return output, nil
}

// =============================================================================
// Paths
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/erkit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
