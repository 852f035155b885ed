package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/state"
)

const tripsCSV = "from,to,trips\nA,B,5\nA,B,3\nA,C,2\nB,C,1\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := session.NewRegistry(time.Hour, nil)
	srv := New(reg, Options{
		StateOptions: []state.Option{
			state.WithMapping(flow.Mapping{Origin: "from", Destination: "to", Weight: "trips"}),
		},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createWorkspace(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/workspaces", "text/csv", tripsCSV)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var got createdResponse
	decode(t, resp, &got)
	return got.ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestCreateAndGet(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/workspaces", "text/csv", tripsCSV)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created createdResponse
	decode(t, resp, &created)
	if created.Rows != 4 || strings.Join(created.Columns, ",") != "from,to,trips" {
		t.Errorf("created = %+v", created)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/workspaces/"+created.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var ws workspaceResponse
	decode(t, resp, &ws)
	if ws.Edges != 3 {
		t.Errorf("edges = %d, want 3", ws.Edges)
	}
	if ws.TotalWeight != 11 {
		t.Errorf("totalWeight = %v, want 11", ws.TotalWeight)
	}
	if got := strings.Join(ws.Options.Origins, ","); got != "A,B" {
		t.Errorf("origins = %q, want A,B", got)
	}
	if got := strings.Join(ws.Options.Ego, ","); got != "B,C" {
		t.Errorf("ego options = %q, want B,C", got)
	}
}

func TestCreateJSON(t *testing.T) {
	ts := newTestServer(t)
	body := `[{"from":"A","to":"B","trips":2},{"from":"B","to":"A","trips":1}]`
	resp := do(t, http.MethodPost, ts.URL+"/api/workspaces", "application/json", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created createdResponse
	decode(t, resp, &created)
	if created.Rows != 2 {
		t.Errorf("rows = %d, want 2", created.Rows)
	}
}

func TestViews(t *testing.T) {
	ts := newTestServer(t)
	id := createWorkspace(t, ts)
	base := ts.URL + "/api/workspaces/" + id

	resp := do(t, http.MethodGet, base+"/views/flow", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get view status = %d", resp.StatusCode)
	}
	var proj state.Projection
	decode(t, resp, &proj)
	if proj.Flow == nil || len(proj.Flow.Edges) != 3 {
		t.Fatalf("flow projection = %+v", proj)
	}

	resp = do(t, http.MethodPut, base+"/views/flow", "application/json", `{"topN": 1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set view status = %d", resp.StatusCode)
	}
	proj = state.Projection{}
	decode(t, resp, &proj)
	if proj.Flow == nil || len(proj.Flow.Edges) != 1 {
		t.Fatalf("top-1 projection = %+v", proj)
	}
	if e := proj.Flow.Edges[0]; e.Source != "A" || e.Target != "B" || e.Value != 8 {
		t.Errorf("top edge = %+v, want A->B 8", e)
	}

	resp = do(t, http.MethodPut, base+"/views/ego-1", "application/json", `{"focus": "C"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set ego status = %d", resp.StatusCode)
	}
	proj = state.Projection{}
	decode(t, resp, &proj)
	if proj.Ego == nil || len(proj.Ego.Edges) != 2 {
		t.Errorf("ego projection = %+v", proj.Ego)
	}

	resp = do(t, http.MethodPut, base+"/active", "application/json", `{"view": "flow"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set active status = %d", resp.StatusCode)
	}
	var active activeResponse
	decode(t, resp, &active)
	if active.Active != state.ViewFlow || active.Stats.DisplayedLinks != 1 {
		t.Errorf("active = %+v", active)
	}
}

func TestViewDOT(t *testing.T) {
	ts := newTestServer(t)
	id := createWorkspace(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/api/workspaces/"+id+"/views/flow?format=dot&direction=TB", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if dot := string(body); !strings.Contains(dot, "rankdir=TB") || !strings.Contains(dot, `"A" -> "B"`) {
		t.Errorf("dot = %s", dot)
	}
}

func TestSetMapping(t *testing.T) {
	ts := newTestServer(t)
	id := createWorkspace(t, ts)
	base := ts.URL + "/api/workspaces/" + id

	resp := do(t, http.MethodPut, base+"/mapping", "application/json", `{"origin":"to","destination":"from"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var ws workspaceResponse
	decode(t, resp, &ws)
	if ws.Mapping.Origin != "to" || ws.Mapping.Weight != "" {
		t.Errorf("mapping = %+v", ws.Mapping)
	}
	if ws.TotalWeight != 4 {
		t.Errorf("unweighted total = %v, want 4", ws.TotalWeight)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	id := createWorkspace(t, ts)
	base := ts.URL + "/api/workspaces/" + id

	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown workspace", http.MethodGet, ts.URL + "/api/workspaces/" + session.NewID(), "", http.StatusNotFound, "WORKSPACE_NOT_FOUND"},
		{"malformed id", http.MethodGet, ts.URL + "/api/workspaces/nope", "", http.StatusNotFound, "WORKSPACE_NOT_FOUND"},
		{"unknown view", http.MethodGet, base + "/views/sankey", "", http.StatusBadRequest, "INVALID_VIEW"},
		{"same columns", http.MethodPut, base + "/mapping", `{"origin":"from","destination":"from"}`, http.StatusBadRequest, "INVALID_MAPPING"},
		{"unknown column", http.MethodPut, base + "/mapping", `{"origin":"src","destination":"to"}`, http.StatusBadRequest, "INVALID_COLUMN"},
		{"unknown field", http.MethodPut, base + "/mapping", `{"source":"from"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"negative top-n", http.MethodPut, base + "/views/flow", `{"topN":-1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad format", http.MethodGet, base + "/views/flow?format=png", "", http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad active view", http.MethodPut, base + "/active", `{"view":"ego-9"}`, http.StatusBadRequest, "INVALID_VIEW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := ""
			if tt.body != "" {
				ct = "application/json"
			}
			resp := do(t, tt.method, tt.url, ct, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body errorBody
			decode(t, resp, &body)
			if string(body.Error.Code) != tt.wantCode {
				t.Errorf("code = %q, want %q (message %q)", body.Error.Code, tt.wantCode, body.Error.Message)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	id := createWorkspace(t, ts)

	resp := do(t, http.MethodDelete, ts.URL+"/api/workspaces/"+id, "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/api/workspaces/"+id, "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := New(session.NewRegistry(time.Hour, nil), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
