// Package cli implements the patina command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patina/pkg/buildinfo"
	"github.com/matzehuels/patina/pkg/cache"
	"github.com/matzehuels/patina/pkg/observability"
	"github.com/matzehuels/patina/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "patina"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// globalOpts holds the persistent flags shared by every command.
type globalOpts struct {
	verbose bool
	jsonLog bool
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Patina ages photographs with sepia, stains and cracks",
		Long: `Patina turns clean photographs into convincingly old ones: a sepia tone,
soft stains, fractal cracks and reduced contrast. Every result is
reproducible from its seed, which makes patina suitable for building
paired restoration datasets.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var global globalOpts
	root.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&global.jsonLog, "log-json", false, "log as JSON lines")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		c.configureLogger(global)
		c.registerHooks()
		return nil
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.ageCommand())
	root.AddCommand(c.cracksCommand())
	root.AddCommand(c.preprocessCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.presetCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// configureLogger applies the persistent logging flags.
func (c *CLI) configureLogger(opts globalOpts) {
	if opts.verbose {
		c.SetLogLevel(LogDebug)
	}
	if opts.jsonLog {
		c.Logger.SetFormatter(log.JSONFormatter)
	}
}

// registerHooks routes pipeline and cache events to the debug log.
func (c *CLI) registerHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetDatasetHooks(h)
	observability.SetHTTPHooks(h)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("artifact cache", "backend", store)
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

// newCache opens the local file cache. A missing home directory disables
// caching rather than failing the command.
func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.Disabled("--no-cache"), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.Disabled(err.Error()), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/patina/).
func cacheDir() (string, error) {
	return cache.DefaultDir(appName)
}
