package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/state"
)

// optionSet lists the values each view can be filtered or focused on.
type optionSet struct {
	Columns      []string `json:"columns"`
	Origins      []string `json:"origins"`
	Destinations []string `json:"destinations"`
	Ego          []string `json:"ego"`
}

// optionsCommand creates the options command.
func (c *CLI) optionsCommand() *cobra.Command {
	var (
		mapping mappingFlags
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "options <file>",
		Short: "List the columns and the selectable origins, destinations and ego nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadState(cmd.Context(), args[0], mapping)
			if err != nil {
				return err
			}
			set := optionSet{
				Columns:      nonNil(s.Dataset().Columns),
				Origins:      nonNil(s.OriginOptions()),
				Destinations: nonNil(s.DestinationOptions()),
				Ego:          nonNil(s.EgoOptions()),
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(set)
			}
			printOptions(set)
			return nil
		},
	}

	mapping.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the options as JSON")
	registerColumnCompletion(cmd)
	return cmd
}

// loadState reads input into a fresh state seeded from the config.
func (c *CLI) loadState(ctx context.Context, input string, mapping mappingFlags) (*state.State, error) {
	opts := pipeline.Options{Mapping: mapping.apply(c.cfg.Columns)}
	if err := opts.ValidateForAggregate(); err != nil {
		return nil, err
	}

	ds, err := c.readInput(ctx, input, mapping.format)
	if err != nil {
		return nil, err
	}

	stateOpts := append(c.cfg.StateOptions(), state.WithMapping(opts.Mapping))
	s, err := state.New(stateOpts...).LoadRows(ctx, ds)
	if err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Debug("state loaded",
		"rows", ds.Len(), "edges", len(s.Graph().Edges()), "mapping", s.Mapping())
	return s, nil
}

func printOptions(set optionSet) {
	printKeyValue("Columns", strings.Join(set.Columns, ", "))
	printKeyValue("Origins", summarize(set.Origins))
	printKeyValue("Targets", summarize(set.Destinations))
	printKeyValue("Ego", summarize(set.Ego))
}

// summarize lists up to ten values and counts the rest.
func summarize(values []string) string {
	const shown = 10
	if len(values) == 0 {
		return StyleDim.Render("none")
	}
	if len(values) <= shown {
		return strings.Join(values, ", ")
	}
	return strings.Join(values[:shown], ", ") + StyleDim.Render(fmt.Sprintf(" … %d more", len(values)-shown))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
