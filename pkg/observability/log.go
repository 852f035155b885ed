package observability

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event as a debug line. It implements all hook
// interfaces of this package.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks logs to logger with the prefix "hooks". A nil logger
// discards events.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnAggregateStart(ctx context.Context, rowCount int) {
	h.logger.Debug("aggregate start", "rows", rowCount)
}

func (h *LogHooks) OnAggregateComplete(ctx context.Context, edgeCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("aggregate failed", "duration", d, "error", err)
		return
	}
	h.logger.Debug("aggregate done", "edges", edgeCount, "duration", d)
}

func (h *LogHooks) OnProjectStart(ctx context.Context, view string) {
	h.logger.Debug("project start", "view", view)
}

func (h *LogHooks) OnProjectComplete(ctx context.Context, view string, edgeCount int, d time.Duration) {
	h.logger.Debug("project done", "view", view, "edges", edgeCount, "duration", d)
}

func (h *LogHooks) OnRenderStart(ctx context.Context, formats []string) {
	h.logger.Debug("render start", "formats", strings.Join(formats, ","))
}

func (h *LogHooks) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render done", "formats", strings.Join(formats, ","), "duration", d, "error", err)
}

func (h *LogHooks) OnCacheHit(ctx context.Context, key string) {
	h.logger.Debug("cache hit", "kind", keyKind(key))
}

func (h *LogHooks) OnCacheMiss(ctx context.Context, key string) {
	h.logger.Debug("cache miss", "kind", keyKind(key))
}

func (h *LogHooks) OnCacheSet(ctx context.Context, key string, size int) {
	h.logger.Debug("cache set", "kind", keyKind(key), "bytes", size)
}

func (h *LogHooks) OnRequest(ctx context.Context, method, route string) {}

func (h *LogHooks) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("request", "method", method, "route", route, "status", status, "duration", d)
}

func (h *LogHooks) OnWorkspaceCreate(ctx context.Context, id string, rowCount int) {
	h.logger.Debug("workspace created", "id", id, "rows", rowCount)
}

func (h *LogHooks) OnWorkspaceDelete(ctx context.Context, id string) {
	h.logger.Debug("workspace deleted", "id", id)
}

func (h *LogHooks) OnWorkspaceExpire(ctx context.Context, count int) {
	h.logger.Debug("workspaces expired", "count", count)
}

// keyKind returns the key prefix before the first colon.
func keyKind(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}

var (
	_ PipelineHooks  = (*LogHooks)(nil)
	_ CacheHooks     = (*LogHooks)(nil)
	_ HTTPHooks      = (*LogHooks)(nil)
	_ WorkspaceHooks = (*LogHooks)(nil)
)
