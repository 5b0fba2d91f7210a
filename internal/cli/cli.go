package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/internal/config"
	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/buildinfo"
	"github.com/refgraph/refgraph/pkg/cache"
	"github.com/refgraph/refgraph/pkg/pipeline"
)

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

	configPath string
	noCache    bool
	cfg        *config.Config
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
		Use:          "refgraph",
		Short:        "Refgraph explores investigative entity graphs",
		Long:         `Refgraph fetches entity graphs from the investigation backend, classifies and filters them, and lays them out for exploration or export.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/refgraph/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.leaderboardCommand())
	root.AddCommand(c.communitiesCommand())
	root.AddCommand(c.timelineCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Factories
// =============================================================================

// deps bundles what most commands need.
type deps struct {
	cfg     *config.Config
	cache   cache.Cache
	backend *backend.Client
	runner  *pipeline.Runner
}

func (d *deps) Close() error {
	return d.cache.Close()
}

// newDeps opens the cache and builds the backend client and runner.
func (c *CLI) newDeps(ctx context.Context) (*deps, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := cfg.NewCache(ctx, c.Logger)
	if err != nil {
		return nil, err
	}
	client, err := backend.New(cfg.BackendOptions(ch, c.Logger))
	if err != nil {
		ch.Close()
		return nil, err
	}
	return &deps{
		cfg:     cfg,
		cache:   ch,
		backend: client,
		runner:  pipeline.NewRunner(ch, cfg.Keyer(), c.Logger),
	}, nil
}
