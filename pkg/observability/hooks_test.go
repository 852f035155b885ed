package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnAggregateStart(ctx, 1200)
	p.OnAggregateComplete(ctx, 340, time.Second, nil)
	p.OnProjectStart(ctx, "flow")
	p.OnProjectComplete(ctx, "flow", 50, time.Second)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "graph:abc")
	c.OnCacheMiss(ctx, "projection:abc")
	c.OnCacheSet(ctx, "artifact:abc", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/api/workspaces/{id}")
	h.OnResponse(ctx, "GET", "/api/workspaces/{id}", 200, time.Second)

	w := NoopWorkspaceHooks{}
	w.OnWorkspaceCreate(ctx, "id", 10)
	w.OnWorkspaceDelete(ctx, "id")
	w.OnWorkspaceExpire(ctx, 2)
}

func TestRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Workspace().(NoopWorkspaceHooks); !ok {
		t.Error("Workspace() should return NoopWorkspaceHooks by default")
	}

	lh := NewLogHooks(nil)
	SetPipelineHooks(lh)
	SetCacheHooks(lh)
	SetHTTPHooks(lh)
	SetWorkspaceHooks(lh)

	if Pipeline() != PipelineHooks(lh) {
		t.Error("SetPipelineHooks should install the hooks")
	}
	if Cache() != CacheHooks(lh) {
		t.Error("SetCacheHooks should install the hooks")
	}
	if HTTP() != HTTPHooks(lh) {
		t.Error("SetHTTPHooks should install the hooks")
	}
	if Workspace() != WorkspaceHooks(lh) {
		t.Error("SetWorkspaceHooks should install the hooks")
	}

	Reset()
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &countingWorkspaceHooks{}
	SetWorkspaceHooks(custom)
	SetWorkspaceHooks(nil)

	Workspace().OnWorkspaceCreate(context.Background(), "id", 3)
	if custom.created != 1 {
		t.Errorf("created = %d, want 1 after SetWorkspaceHooks(nil)", custom.created)
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnAggregateComplete(ctx, 12, time.Millisecond, nil)
	h.OnAggregateComplete(ctx, 0, time.Millisecond, errors.New("bad mapping"))
	h.OnCacheHit(ctx, "projection:abc123")
	h.OnWorkspaceExpire(ctx, 2)

	out := buf.String()
	for _, want := range []string{"hooks", "aggregate done", "edges=12", "aggregate failed", "bad mapping", "kind=projection", "workspaces expired"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "abc123") {
		t.Errorf("log output should not contain full cache keys:\n%s", out)
	}
}

func TestKeyKind(t *testing.T) {
	tests := []struct{ key, want string }{
		{"graph:abc", "graph"},
		{"artifact:abc:svg", "artifact"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := keyKind(tt.key); got != tt.want {
			t.Errorf("keyKind(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

type countingWorkspaceHooks struct {
	NoopWorkspaceHooks
	created int
}

func (h *countingWorkspaceHooks) OnWorkspaceCreate(context.Context, string, int) { h.created++ }
