// Package observability lets the host program watch flowlens at work.
//
// Library code never talks to a metrics or tracing backend. Each stage
// calls the hooks registered here, which are no-ops until main installs
// something else, for example the logging hooks of [NewLogHooks]:
//
//	hooks := observability.NewLogHooks(logger)
//	observability.SetPipelineHooks(hooks)
//	observability.SetWorkspaceHooks(hooks)
//
// A stage reports itself like this:
//
//	observability.Pipeline().OnAggregateStart(ctx, len(rows))
//	g, err := flow.Build(rows, mapping)
//	observability.Pipeline().OnAggregateComplete(ctx, len(g.Edges()), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from aggregation, projection and rendering.
type PipelineHooks interface {
	OnAggregateStart(ctx context.Context, rowCount int)
	OnAggregateComplete(ctx context.Context, edgeCount int, duration time.Duration, err error)

	OnProjectStart(ctx context.Context, view string)
	OnProjectComplete(ctx context.Context, view string, edgeCount int, duration time.Duration)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. key is the full cache key;
// its prefix up to the first colon names the entry kind.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
	OnCacheSet(ctx context.Context, key string, size int)
}

// HTTPHooks receives requests of the API server. route is the chi route
// pattern, never the raw path.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// WorkspaceHooks receives workspace lifecycle events from the session
// registry.
type WorkspaceHooks interface {
	OnWorkspaceCreate(ctx context.Context, id string, rowCount int)
	OnWorkspaceDelete(ctx context.Context, id string)
	OnWorkspaceExpire(ctx context.Context, count int)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnAggregateStart(context.Context, int)                            {}
func (NoopPipelineHooks) OnAggregateComplete(context.Context, int, time.Duration, error)   {}
func (NoopPipelineHooks) OnProjectStart(context.Context, string)                           {}
func (NoopPipelineHooks) OnProjectComplete(context.Context, string, int, time.Duration)    {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every request.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// NoopWorkspaceHooks ignores every workspace event.
type NoopWorkspaceHooks struct{}

func (NoopWorkspaceHooks) OnWorkspaceCreate(context.Context, string, int) {}
func (NoopWorkspaceHooks) OnWorkspaceDelete(context.Context, string)      {}
func (NoopWorkspaceHooks) OnWorkspaceExpire(context.Context, int)         {}

// =============================================================================
// Registry
// =============================================================================

type registry struct {
	mu        sync.RWMutex
	pipeline  PipelineHooks
	cache     CacheHooks
	http      HTTPHooks
	workspace WorkspaceHooks
}

var hooks = newRegistry()

func newRegistry() *registry {
	return &registry{
		pipeline:  NoopPipelineHooks{},
		cache:     NoopCacheHooks{},
		http:      NoopHTTPHooks{},
		workspace: NoopWorkspaceHooks{},
	}
}

// set stores h into dst under the lock. Nil hooks are ignored.
func set[T comparable](dst *T, h T) {
	var none T
	if h == none {
		return
	}
	hooks.mu.Lock()
	*dst = h
	hooks.mu.Unlock()
}

func get[T any](src *T) T {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return *src
}

// SetPipelineHooks installs h. Call it once at startup; nil is ignored.
func SetPipelineHooks(h PipelineHooks) { set(&hooks.pipeline, h) }

// SetCacheHooks installs h. Call it once at startup; nil is ignored.
func SetCacheHooks(h CacheHooks) { set(&hooks.cache, h) }

// SetHTTPHooks installs h. Call it once at startup; nil is ignored.
func SetHTTPHooks(h HTTPHooks) { set(&hooks.http, h) }

// SetWorkspaceHooks installs h. Call it once at startup; nil is ignored.
func SetWorkspaceHooks(h WorkspaceHooks) { set(&hooks.workspace, h) }

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return get(&hooks.pipeline) }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return get(&hooks.cache) }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return get(&hooks.http) }

// Workspace returns the installed workspace hooks.
func Workspace() WorkspaceHooks { return get(&hooks.workspace) }

// Reset restores the no-op hooks. Tests use it to undo their installs.
func Reset() {
	fresh := newRegistry()
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	hooks.pipeline = fresh.pipeline
	hooks.cache = fresh.cache
	hooks.http = fresh.http
	hooks.workspace = fresh.workspace
}
