package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/render/nodelink"
	"github.com/matzehuels/flowlens/pkg/state"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, proj *state.Projection, opts Options) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)

	artifacts, err := render(ctx, proj, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, proj *state.Projection, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = json.MarshalIndent(proj.Payload(), "", "  ")
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = DOT(proj, opts.NodelinkOptions())
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(ctx, dot)
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// DOT converts a projection to Graphviz DOT using the converter of its view
// kind.
func DOT(proj *state.Projection, opts nodelink.Options) string {
	switch {
	case proj.Flow != nil:
		return nodelink.FlowDOT(*proj.Flow, opts)
	case proj.Ego != nil:
		return nodelink.EgoDOT(*proj.Ego, opts)
	case proj.Map != nil:
		return nodelink.MapDOT(*proj.Map, opts)
	}
	return "digraph G {\n}\n"
}
