package cli

import (
	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/internal/server"
	"github.com/refgraph/refgraph/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the graph API over HTTP.

Prometheus metrics are exposed on /metrics. The server shuts down gracefully
on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := c.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			defaults, err := d.cfg.PipelineOptions()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("listen") {
				listen = d.cfg.Server.Listen
			}

			metrics := observability.NewPrometheus("refgraph")
			defer observability.Register(metrics)()

			srv := server.New(server.Options{
				Backend:      d.backend,
				Runner:       d.runner,
				Defaults:     defaults,
				Metrics:      metrics,
				Logger:       c.Logger,
				ReadTimeout:  d.cfg.Server.ReadTimeout,
				WriteTimeout: d.cfg.Server.WriteTimeout,
			})
			printInfo("Backend %s", StyleLink.Render(d.backend.BaseURL()))
			return srv.ListenAndServe(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8090)")
	return cmd
}
