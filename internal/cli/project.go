package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/state"
)

// projectFlags holds the options of `project`.
type projectFlags struct {
	mapping    mappingFlags
	view       viewFlags
	formats    string
	output     string
	direction  string
	showValues bool
	noCache    bool
	refresh    bool
}

// projectCommand creates the project command.
func (c *CLI) projectCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "project <view> <file>",
		Short: "Project a row file as one view and write it as JSON, DOT or SVG",
		Long: `Project a row file as one view.

Views:
  flow         top-N edges by value, for a flow diagram
  force        top-N edges with node sizes and edge widths, for a force graph
  ego-1..ego-4 the neighborhood of --focus
  map          edges between nodes with coordinates

With one format the result goes to --output, or stdout when --output is
empty. With several formats each is written to <output>.<format>.`,
		Example: `  flowlens project flow trips.csv --origin-column from --destination-column to
  flowlens project force trips.csv -n 50 -f json,svg -o trips
  flowlens project ego-1 trips.csv --focus Lima -f svg -o lima.svg
  flowlens project map trips.csv --color-by region --cost`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeViewThenFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProject(cmd, args[0], args[1], flags)
		},
	}

	flags.mapping.register(cmd)
	flags.view.register(cmd)
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output formats: json, dot, svg (comma-separated)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file, or base path for several formats")
	cmd.Flags().StringVar(&flags.direction, "direction", "", "diagram direction: LR, RL, TB or BT")
	cmd.Flags().BoolVar(&flags.showValues, "values", false, "label diagram edges with their value")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "recompute even when cached")
	registerColumnCompletion(cmd)

	return cmd
}

func viewNames() []string {
	names := make([]string, len(state.Views))
	for i, v := range state.Views {
		names[i] = string(v)
	}
	return names
}

func (c *CLI) runProject(cmd *cobra.Command, view, input string, flags projectFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	v, err := state.ParseView(view)
	if err != nil {
		return err
	}
	opts := pipeline.Options{
		Input:       input,
		InputFormat: flags.mapping.format,
		Mapping:     flags.mapping.apply(c.cfg.Columns),
		View:        string(v),
		Params:      flags.view.apply(cmd, c.cfg.ViewParams(v)),
		Formats:     parseFormats(flags.formats),
		Direction:   flags.direction,
		ShowValues:  flags.showValues,
		Refresh:     flags.refresh,
		Logger:      logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	toStdout := flags.output == "" && len(opts.Formats) == 1
	var spinner *Spinner
	if !toStdout {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Projecting %s...", opts.View))
		spinner.Start()
	}
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Projected %s", opts.View))

	written, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		output:    flags.output,
		input:     input,
	})
	if err != nil {
		return err
	}
	if toStdout {
		return nil
	}

	printSuccess("Projected %s", opts.View)
	printDetail("%s", result.Projection.Summary.Label)
	printStats(result.Stats.RowCount, result.Stats.EdgeCount, result.CacheInfo.ProjectHit)
	for _, path := range written {
		printFile(path)
	}
	return nil
}

// =============================================================================
// Artifact Output
// =============================================================================

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	output    string
	input     string
}

// writeArtifacts writes the rendered formats and returns the paths written.
// A single format without an output path goes to stdout. Several formats
// without an output path are written next to the input file.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	if len(p.formats) == 1 && p.output == "" {
		_, err := os.Stdout.Write(p.artifacts[p.formats[0]])
		return nil, err
	}

	if len(p.formats) == 1 {
		if err := writeFile(p.output, p.artifacts[p.formats[0]]); err != nil {
			return nil, err
		}
		return []string{p.output}, nil
	}

	base := p.output
	if base == "" {
		base = basePath(p.input)
	}
	formats := append([]string(nil), p.formats...)
	sort.Strings(formats)

	var paths []string
	for _, f := range formats {
		path := base + "." + f
		if err := writeFile(path, p.artifacts[f]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// basePath strips the extension from input.
func basePath(input string) string {
	if i := strings.LastIndexByte(input, '.'); i > strings.LastIndexByte(input, '/') {
		return input[:i]
	}
	return input
}
