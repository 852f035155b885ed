package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/project"
	"github.com/matzehuels/flowlens/pkg/state"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "pdf"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateDirection(t *testing.T) {
	for _, dir := range []string{"LR", "RL", "TB", "BT"} {
		if err := ValidateDirection(dir); err != nil {
			t.Errorf("ValidateDirection(%q) = %v", dir, err)
		}
	}
	for _, dir := range []string{"", "lr", "up"} {
		if err := ValidateDirection(dir); err == nil {
			t.Errorf("ValidateDirection(%q) should fail", dir)
		}
	}
}

func TestOptionsValidateForLoad(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForLoad(); err == nil {
		t.Error("Missing input should fail")
	}

	opts = Options{Input: "rows.xlsx", InputFormat: "xlsx"}
	if err := opts.ValidateForLoad(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Unknown input format error = %v", err)
	}

	opts = Options{Input: "rows.csv", InputFormat: "csv"}
	if err := opts.ValidateForLoad(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}
}

func TestOptionsValidateForProject(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
		wantTopN int
	}{
		{"default view", Options{}, "", project.DefaultFlowTopN},
		{"force default", Options{View: "force"}, "", project.DefaultForceTopN},
		{"ego has no top-n", Options{View: "ego-2"}, "", 0},
		{"explicit top-n", Options{View: "flow", Params: state.Params{TopN: 5}}, "", 5},
		{"unknown view", Options{View: "sankey"}, errors.ErrCodeInvalidView, 0},
		{"same columns", Options{Mapping: flow.Mapping{Origin: "a", Destination: "a"}}, errors.ErrCodeInvalidMapping, 0},
		{"negative top-n", Options{Params: state.Params{TopN: -1}}, errors.ErrCodeInvalidInput, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForProject()
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.opts.Params.TopN != tt.wantTopN {
				t.Errorf("TopN = %d, want %d", tt.opts.Params.TopN, tt.wantTopN)
			}
		})
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats should be [json], got %v", opts.Formats)
	}
	if opts.Direction != DefaultDirection {
		t.Errorf("Direction should be %s, got %s", DefaultDirection, opts.Direction)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Input: "rows.csv"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	view, formats := opts.View, len(opts.Formats)

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.View != view || len(opts.Formats) != formats {
		t.Error("defaults changed on second call")
	}
}

// =============================================================================
// Runner
// =============================================================================

const tripsCSV = "from,to,trips\nA,B,5\nA,B,3\nA,C,2\n"

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel}))
}

var tripsMapping = flow.Mapping{Origin: "from", Destination: "to", Weight: "trips"}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	defer r.Close()

	opts := Options{
		Input:   writeInput(t, tripsCSV),
		Mapping: tripsMapping,
		Formats: []string{FormatJSON, FormatDOT},
	}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.ProjectHit || res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if res.Stats.RowCount != 3 || res.Stats.EdgeCount != 2 {
		t.Errorf("Stats = %+v, want 3 rows and 2 edges", res.Stats)
	}
	if res.Projection.Flow == nil || res.Projection.Flow.Status != project.StatusOK {
		t.Fatalf("Projection = %+v, want an ok flow payload", res.Projection)
	}
	if got := res.Projection.Flow.Edges[0]; got.Source != "A" || got.Target != "B" || got.Value != 8 {
		t.Errorf("first edge = %+v, want A->B 8", got)
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"status": "ok"`) {
		t.Errorf("json artifact = %s", res.Artifacts[FormatJSON])
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph G {") {
		t.Errorf("dot artifact = %s", res.Artifacts[FormatDOT])
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !again.CacheInfo.ProjectHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", again.CacheInfo)
	}
	if string(again.Artifacts[FormatDOT]) != string(res.Artifacts[FormatDOT]) {
		t.Error("cached artifact differs from the rendered one")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if fresh.CacheInfo.ProjectHit || fresh.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestRunnerCacheFollowsFileContent(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	path := writeInput(t, tripsCSV)
	opts := Options{Input: path, Mapping: tripsMapping}

	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(tripsCSV+"C,D,7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.ProjectHit {
		t.Error("edited file should miss the projection cache")
	}
	if res.Projection.Flow.Stats.TotalLinks != 3 {
		t.Errorf("TotalLinks = %d, want 3", res.Projection.Flow.Stats.TotalLinks)
	}
}

func TestRunnerAggregate(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	opts := Options{Input: writeInput(t, tripsCSV+"A,,9\n"), Mapping: tripsMapping}

	ds, hash, err := r.Load(ctx, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	report, hit, err := r.AggregateWithCacheInfo(ctx, ds, hash, opts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if hit {
		t.Error("first aggregate should miss")
	}
	if report.Rows != 4 || report.ValidRows != 3 {
		t.Errorf("rows = %d/%d, want 3/4", report.ValidRows, report.Rows)
	}
	if len(report.Edges) != 2 || report.TotalWeight != 10 {
		t.Errorf("report = %+v", report)
	}
	if got := strings.Join(report.Nodes, ","); got != "A,B,C" {
		t.Errorf("Nodes = %s, want A,B,C", got)
	}

	cached, hit, err := r.AggregateWithCacheInfo(ctx, ds, hash, opts)
	if err != nil || !hit {
		t.Fatalf("second aggregate = %v, %v, want a hit", hit, err)
	}
	if cached.Edges[0].Count != 2 {
		t.Errorf("cached edge = %+v, want count 2", cached.Edges[0])
	}
}

func TestRunnerErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	_, err := r.Execute(ctx, Options{Input: filepath.Join(t.TempDir(), "missing.csv"), Mapping: tripsMapping})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	_, err = r.Execute(ctx, Options{
		Input:   writeInput(t, tripsCSV),
		Mapping: flow.Mapping{Origin: "from", Destination: "dest"},
	})
	if !errors.Is(err, errors.ErrCodeInvalidColumn) {
		t.Errorf("unknown column error = %v, want INVALID_COLUMN", err)
	}
}

func TestRunnerViews(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	input := writeInput(t, "from,to,trips,lat,lng,dlat,dlng\nA,B,5,1,2,3,4\nB,C,1,3,4,5,6\n")
	m := flow.Mapping{
		Origin: "from", Destination: "to", Weight: "trips",
		OriginLat: "lat", OriginLng: "lng", DestLat: "dlat", DestLng: "dlng",
	}

	tests := []struct {
		view   string
		params state.Params
		check  func(*state.Projection) bool
	}{
		{"force", state.Params{}, func(p *state.Projection) bool { return p.Flow != nil && p.Flow.Nodes[0].Color != "" }},
		{"ego-1", state.Params{Focus: "B"}, func(p *state.Projection) bool { return p.Ego != nil && p.Ego.Stats.EdgeCount == 2 }},
		{"ego-3", state.Params{}, func(p *state.Projection) bool { return p.Ego.Status == project.StatusNoSelection }},
		{"map", state.Params{}, func(p *state.Projection) bool { return p.Map != nil && p.Map.Status == project.StatusOK }},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			res, err := r.Execute(ctx, Options{Input: input, Mapping: m, View: tt.view, Params: tt.params, Formats: []string{FormatDOT}})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !tt.check(res.Projection) {
				t.Errorf("unexpected projection %+v", res.Projection)
			}
			if len(res.Artifacts[FormatDOT]) == 0 {
				t.Error("missing dot artifact")
			}
		})
	}
}
