package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// fetchCommand creates the fetch command, which writes a raw payload.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		qf     queryFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "fetch <kind> [id]",
		Short: "Fetch a raw graph payload from the backend",
		Long: `Fetch a raw graph payload from the backend.

Kinds:
  component <id>    a connected component by id
  refsimilar <id>   refs similar to a ref id
  sameop            refs sharing an operator
  offtime           off-hours activity (--degree sets the minimum degree)`,
		Example: `  refgraph fetch component c42 -o c42.json
  refgraph fetch offtime --degree 3`,
		Args:              queryArgs,
		ValidArgsFunction: completeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query(args)
			if err != nil {
				return err
			}
			d, err := c.newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			data, err := spin(cmd.Context(), "Fetching "+q.String(), func(ctx context.Context) ([]byte, error) {
				return d.backend.Fetch(ctx, q, qf.refresh)
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := writeFile(output, data); err != nil {
				return err
			}
			printSuccess("Fetched %s (%d bytes)", q, len(data))
			printFile(output)
			printNextStep("Render it", "refgraph render "+output+" -f svg")
			return nil
		},
	}
	qf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
