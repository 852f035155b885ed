package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/rows"
	"github.com/matzehuels/flowlens/pkg/state"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL replaces the per-stage entry lifetimes when non-zero.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs load → project → render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	lg := r.logger(opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	ds, hash, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.DatasetHash = hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.RowCount = ds.Len()

	lg.Info("loaded rows",
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"duration", result.Stats.LoadTime)

	// Stage 2: Project (aggregation happens on a projection miss)
	projectStart := time.Now()
	proj, projectHit, err := r.ProjectWithCacheInfo(ctx, ds, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	result.Projection = proj
	result.Stats.ProjectTime = time.Since(projectStart)
	result.Stats.EdgeCount = proj.Summary.DisplayedLinks
	result.CacheInfo.ProjectHit = projectHit

	lg.Info("projected view",
		"view", opts.View,
		"status", proj.Status(),
		"edges", proj.Summary.DisplayedLinks,
		"duration", result.Stats.ProjectTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, proj, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	lg.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the input file and returns the dataset with the content hash
// of the file.
func (r *Runner) Load(ctx context.Context, opts Options) (rows.Dataset, string, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return rows.Dataset{}, "", err
	}
	if err := ctx.Err(); err != nil {
		return rows.Dataset{}, "", err
	}

	hash, err := cache.HashFile(opts.Input)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return rows.Dataset{}, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "input file %s not found", opts.Input)
		}
		return rows.Dataset{}, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.Input)
	}

	ds, err := readDataset(opts.Input, opts.InputFormat)
	if err != nil {
		return rows.Dataset{}, "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", opts.Input)
	}
	r.logger(opts).Debug("read dataset", "path", opts.Input, "rows", ds.Len(), "hash", hash[:12])
	return ds, hash, nil
}

func readDataset(path, format string) (rows.Dataset, error) {
	if format == "" {
		return rows.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return rows.Dataset{}, err
	}
	defer f.Close()
	return rows.Read(f, format)
}

// AggregateWithCacheInfo folds ds into an edge list under opts.Mapping and
// reports whether the result came from cache.
func (r *Runner) AggregateWithCacheInfo(ctx context.Context, ds rows.Dataset, datasetHash string, opts Options) (*Report, bool, error) {
	if err := opts.ValidateForAggregate(); err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.GraphKey(datasetHash, opts.Mapping)

	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, cacheKey); hit {
			var report Report
			if err := json.Unmarshal(data, &report); err == nil {
				return &report, true, nil
			}
		}
	}

	g, err := r.build(ctx, ds, opts)
	if err != nil {
		return nil, false, err
	}
	report := &Report{
		Rows:        g.RowCount(),
		ValidRows:   g.ValidRowCount(),
		Nodes:       g.Nodes(),
		Edges:       g.Edges(),
		TotalWeight: g.TotalWeight(),
	}

	if data, err := json.Marshal(report); err == nil {
		r.cacheSet(ctx, cacheKey, data, cache.TTLGraph)
	}
	return report, false, nil
}

// Aggregate is a convenience wrapper that calls AggregateWithCacheInfo and discards the cache hit info.
func (r *Runner) Aggregate(ctx context.Context, ds rows.Dataset, datasetHash string, opts Options) (*Report, error) {
	report, _, err := r.AggregateWithCacheInfo(ctx, ds, datasetHash, opts)
	return report, err
}

// ProjectWithCacheInfo computes the projection of opts.View over ds and
// reports whether it came from cache. A miss builds the graph.
func (r *Runner) ProjectWithCacheInfo(ctx context.Context, ds rows.Dataset, datasetHash string, opts Options) (*state.Projection, bool, error) {
	if err := opts.ValidateForProject(); err != nil {
		return nil, false, err
	}
	cacheKey := r.projectionKey(datasetHash, opts.Mapping, opts.View, opts.Params)

	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, cacheKey); hit {
			var proj state.Projection
			if err := json.Unmarshal(data, &proj); err == nil {
				return &proj, true, nil
			}
		}
	}

	g, err := r.build(ctx, ds, opts)
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnProjectStart(ctx, opts.View)
	proj := state.Project(g, opts.ViewID(), opts.Params)
	hooks.OnProjectComplete(ctx, opts.View, proj.Summary.DisplayedLinks, time.Since(start))

	if data, err := json.Marshal(proj); err == nil {
		r.cacheSet(ctx, cacheKey, data, cache.TTLProjection)
	}
	return proj, false, nil
}

// Project is a convenience wrapper that calls ProjectWithCacheInfo and discards the cache hit info.
func (r *Runner) Project(ctx context.Context, ds rows.Dataset, datasetHash string, opts Options) (*state.Projection, error) {
	proj, _, err := r.ProjectWithCacheInfo(ctx, ds, datasetHash, opts)
	return proj, err
}

// RenderWithCacheInfo renders proj in every requested format and reports
// whether all artifacts came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, proj *state.Projection, datasetHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	projKey := r.projectionKey(datasetHash, opts.Mapping, string(proj.View), proj.Params)

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, hit := r.cacheGet(ctx, r.Keyer.ArtifactKey(projKey, opts.ArtifactKeyOpts(format)))
			if !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, proj, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.cacheSet(ctx, r.Keyer.ArtifactKey(projKey, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, proj *state.Projection, datasetHash string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, proj, datasetHash, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) build(ctx context.Context, ds rows.Dataset, opts Options) (*flow.Graph, error) {
	m := opts.Mapping
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnAggregateStart(ctx, ds.Len())

	if missing := m.Missing(ds); len(missing) > 0 && len(ds.Columns) > 0 {
		err := errors.New(errors.ErrCodeInvalidColumn, "unknown column %q", missing[0])
		hooks.OnAggregateComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}
	g, err := flow.Build(ds.Rows, m)
	if err != nil {
		hooks.OnAggregateComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnAggregateComplete(ctx, len(g.Edges()), time.Since(start), nil)

	r.logger(opts).Debug("aggregated rows",
		"rows", g.RowCount(),
		"valid", g.ValidRowCount(),
		"nodes", len(g.Nodes()),
		"edges", len(g.Edges()),
		"duration", time.Since(start))
	return g, nil
}

func (r *Runner) projectionKey(datasetHash string, m flow.Mapping, view string, params state.Params) string {
	return r.Keyer.ProjectionKey(r.Keyer.GraphKey(datasetHash, m), view, params)
}

func (r *Runner) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return data, true
}

func (r *Runner) cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// logger returns the options' logger, falling back to the runner's.
func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
