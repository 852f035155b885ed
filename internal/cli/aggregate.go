package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/project"
)

// aggregateCommand creates the aggregate command.
func (c *CLI) aggregateCommand() *cobra.Command {
	var (
		mapping mappingFlags
		asJSON  bool
		limit   int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate <file>",
		Short: "Fold a row file into weighted edges",
		Long: `Fold a row file into weighted edges.

Rows with the same origin and destination are summed into one edge. Rows
with an empty origin or destination are skipped. Without a weight column
every row counts 1.`,
		Example: `  flowlens aggregate trips.csv --origin-column from --destination-column to
  flowlens aggregate trips.json --weight-column trips --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := pipeline.Options{
				Input:       args[0],
				InputFormat: mapping.format,
				Mapping:     mapping.apply(c.cfg.Columns),
				Logger:      loggerFromContext(ctx),
			}
			if err := opts.ValidateForLoad(); err != nil {
				return err
			}
			if err := opts.ValidateForAggregate(); err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ds, hash, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}
			report, hit, err := runner.AggregateWithCacheInfo(ctx, ds, hash, opts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report, hit, limit)
			return nil
		},
	}

	mapping.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().IntVarP(&limit, "top", "n", 20, "edges to list, heaviest first (0 = all)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	registerColumnCompletion(cmd)

	return cmd
}

func printReport(r *pipeline.Report, cached bool, limit int) {
	printSuccess("Aggregated %d of %d rows into %d edges", r.ValidRows, r.Rows, len(r.Edges))
	printStats(r.Rows, len(r.Edges), cached)
	printKeyValue("Nodes", fmt.Sprintf("%d", len(r.Nodes)))
	printKeyValue("Total", formatValue(r.TotalWeight))
	if len(r.Edges) == 0 {
		return
	}
	fmt.Println(edgeTable(project.SortByValue(r.Edges), limit))
	if limit > 0 && len(r.Edges) > limit {
		printDetail("%d more edges not shown", len(r.Edges)-limit)
	}
}
