package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/pkg/explorer"
	"github.com/refgraph/refgraph/pkg/graph"
)

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		pf           pipelineFlags
		qf           queryFlags
		clearOnError bool
		output       string
	)
	cmd := &cobra.Command{
		Use:   "explore <kind> [id]",
		Short: "Explore a graph interactively",
		Long: `Fetch a graph and adjust its filter, pruning and layout in the terminal.

Control changes recompute the model from the fetched payload without another
backend call. Press w to write the current render model as JSON.`,
		Args:              queryArgs,
		ValidArgsFunction: completeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, err := qf.query(args)
			if err != nil {
				return err
			}
			d, err := c.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			base, err := d.cfg.PipelineOptions()
			if err != nil {
				return err
			}
			opts, err := pf.apply(cmd, base, q.Kind)
			if err != nil {
				return err
			}

			// The TUI owns the terminal; keep library logs out of it.
			quiet := newLogger(io.Discard, c.Logger.GetLevel())
			d.runner.Logger = quiet
			ex, err := explorer.New(d.backend, d.runner, opts, explorer.Config{
				ClearOnError: clearOnError,
				KeepLayout:   cmd.Flags().Changed("layout"),
				Logger:       quiet,
			})
			if err != nil {
				return err
			}

			if output == "" {
				output = basePath("", fmt.Sprintf("%s-%s", q.Kind, q.ID)) + ".json"
			}
			save := func(m graph.RenderModel) (string, error) {
				data, err := graph.MarshalModel(m)
				if err != nil {
					return "", err
				}
				return output, writeFile(output, data)
			}

			_, err = tea.NewProgram(NewExploreModel(ctx, ex, q, save), tea.WithContext(ctx)).Run()
			return err
		},
	}
	pf.register(cmd)
	qf.register(cmd)
	cmd.Flags().BoolVar(&clearOnError, "clear-on-error", false, "clear the graph when a fetch fails")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file written by the w key")
	return cmd
}
