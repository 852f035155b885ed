package server

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/render/nodelink"
	"github.com/matzehuels/flowlens/pkg/state"
)

// artifactKey identifies the SVG of proj rendered from g with opts. Color
// groups come from raw rows, which [flow.Graph.Hash] leaves out, so a
// colored projection is keyed by its own content instead.
func artifactKey(keyer cache.Keyer, g *flow.Graph, proj *state.Projection, opts nodelink.Options) string {
	base := g.Hash()
	if proj.Params.ColorBy != "" || proj.Params.Group != "" {
		if data, err := json.Marshal(proj); err == nil {
			base = cache.Hash(data)
		}
	}
	projKey := keyer.ProjectionKey(base, string(proj.View), proj.Params)
	return keyer.ArtifactKey(projKey, cache.ArtifactKeyOpts{
		Format:     "svg",
		Direction:  opts.Direction,
		ShowValues: opts.ShowValues,
	})
}

// renderSVG renders dot through the artifact cache. An empty key bypasses
// the cache. Cache failures are logged and never fail the render.
func (s *Server) renderSVG(ctx context.Context, key, dot string) ([]byte, error) {
	if key != "" {
		data, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("cache read failed", "key", key, "error", err)
		case hit:
			observability.Cache().OnCacheHit(ctx, key)
			return data, nil
		default:
			observability.Cache().OnCacheMiss(ctx, key)
		}
	}

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := s.cache.Set(ctx, key, svg, cache.TTLArtifact); err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, key, len(svg))
		}
	}
	return svg, nil
}
