package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/pkg/report"
)

// leaderboardCommand lists components by degree.
func (c *CLI) leaderboardCommand() *cobra.Command {
	var (
		minDegree  int
		sortBy     string
		asc        bool
		search     string
		page, size int
		csvPath    string
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "List components ranked by in-degree",
		Example: `  refgraph leaderboard --min 5 --size 20
  refgraph leaderboard --search c4 --sort node_id --asc
  refgraph leaderboard --csv leaderboard.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := report.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			d, err := c.newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			lb, err := spin(cmd.Context(), "Fetching leaderboard", func(ctx context.Context) (report.Leaderboard, error) {
				return d.backend.CompDegree(ctx, minDegree)
			})
			if err != nil {
				return err
			}
			lb = lb.Search(search).Sort(key, !asc)

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := lb.WriteCSV(f); err != nil {
					return err
				}
				printSuccess("Exported %d entries", len(lb))
				printFile(csvPath)
				return nil
			}

			entries, pages := lb.Page(page, size)
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.NodeID, formatDegree(e.InDegree)}
			}
			fmt.Println(renderTable([]string{"Component", "In-degree"}, rows, 1))
			printDetail("page %d/%d · %d components", max(1, min(page, pages)), pages, len(lb))
			return nil
		},
	}
	cmd.Flags().IntVar(&minDegree, "min", 1, "minimum in-degree")
	cmd.Flags().StringVar(&sortBy, "sort", "indegree", "sort column: indegree, node_id")
	cmd.Flags().BoolVar(&asc, "asc", false, "sort ascending")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by id or degree substring")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 25, "entries per page (0 for all)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "export all matching entries as CSV")
	return cmd
}

func formatDegree(d *int) string {
	if d == nil {
		return "—"
	}
	return strconv.Itoa(*d)
}

// communitiesCommand lists operator communities.
func (c *CLI) communitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "communities",
		Short: "List operator communities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			cs, err := spin(cmd.Context(), "Fetching communities", func(ctx context.Context) ([]report.Community, error) {
				return d.backend.Communities(ctx)
			})
			if err != nil {
				return err
			}
			if len(cs) == 0 {
				printInfo("No communities")
				return nil
			}

			rows := make([][]string, len(cs))
			for i, cm := range cs {
				rows[i] = []string{
					cm.CommunityID,
					cm.Operator,
					strconv.Itoa(cm.OperatedCount),
					strconv.Itoa(cm.TotalRefids),
					strconv.FormatFloat(cm.PercentControlled, 'f', 1, 64) + "%",
				}
			}
			fmt.Println(renderTable([]string{"Community", "Operator", "Operated", "Refs", "Controlled"}, rows, 2, 3, 4))
			printNextStep("Show a timeline", "refgraph timeline "+cs[0].CommunityID)
			return nil
		},
	}
}

// timelineCommand shows daily activity for a community.
func (c *CLI) timelineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <community-id>",
		Short: "Show daily activity for a community",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			dates, err := spin(cmd.Context(), "Fetching timeline", func(ctx context.Context) ([]string, error) {
				return d.backend.CommunityDates(ctx, args[0])
			})
			if err != nil {
				return err
			}
			days := report.Timeline(dates)
			if len(days) == 0 {
				printInfo("No activity for %s", args[0])
				return nil
			}

			rows := make([][]string, len(days))
			for i, day := range days {
				rows[i] = []string{day.Date, strconv.Itoa(day.Count), strconv.Itoa(day.Cumulative)}
			}
			fmt.Println(renderTable([]string{"Date", "Count", "Cumulative"}, rows, 1, 2))
			return nil
		},
	}
}
