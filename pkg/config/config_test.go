package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/state"
)

const sample = `
[columns]
origin = "from"
destination = "to"
weight = "trips"
origin_lat = "lat"
origin_lng = "lng"

[views]
flow_top_n = 30
color_by = "region"
cost_mode = true

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "12h"

[server]
addr = ":9090"
watch = true
debounce = "250ms"
`

func TestDecode(t *testing.T) {
	cfg := Default()
	if err := Decode([]byte(sample), &cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if cfg.Columns.Origin != "from" || cfg.Columns.Weight != "trips" || cfg.Columns.OriginLng != "lng" {
		t.Errorf("Columns = %+v", cfg.Columns)
	}
	if cfg.Views.FlowTopN != 30 {
		t.Errorf("FlowTopN = %d, want 30", cfg.Views.FlowTopN)
	}
	if cfg.Views.ForceTopN != 100 {
		t.Errorf("ForceTopN = %d, want the default 100", cfg.Views.ForceTopN)
	}
	if cfg.Cache.TTL.Duration != 12*time.Hour {
		t.Errorf("TTL = %v, want 12h", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != ":9090" || !cfg.Server.Watch || cfg.Server.Debounce.Duration != 250*time.Millisecond {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[columns`},
		{"unknown key", "[columns]\nsource = \"a\""},
		{"same columns", "[columns]\norigin = \"a\"\ndestination = \"a\""},
		{"negative top-n", "[views]\nflow_top_n = -1"},
		{"unknown backend", "[cache]\nbackend = \"memcached\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"bad duration", "[server]\ndebounce = \"soon\""},
		{"bad addr", "[server]\naddr = \"8080\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode([]byte(tt.data), &cfg)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Decode error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowlens.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Columns.Destination != "to" {
		t.Errorf("Destination = %q", cfg.Columns.Destination)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultPathMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr || cfg.Cache.Backend != BackendFile {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestViewParams(t *testing.T) {
	cfg := Default()
	if err := Decode([]byte(sample), &cfg); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		view state.ViewID
		want state.Params
	}{
		{state.ViewFlow, state.Params{TopN: 30}},
		{state.ViewForce, state.Params{TopN: 100}},
		{state.ViewEgo1, state.Params{}},
		{state.ViewMap, state.Params{ColorBy: "region", CostMode: true}},
	}
	for _, tt := range tests {
		if got := cfg.ViewParams(tt.view); got != tt.want {
			t.Errorf("ViewParams(%s) = %+v, want %+v", tt.view, got, tt.want)
		}
	}

	s := state.New(cfg.StateOptions()...)
	if s.Mapping() != cfg.Columns {
		t.Errorf("state mapping = %+v", s.Mapping())
	}
	if s.Params(state.ViewFlow).TopN != 30 {
		t.Errorf("state flow params = %+v", s.Params(state.ViewFlow))
	}
}

func TestString(t *testing.T) {
	cfg := Default()
	cfg.Columns.Origin = "from"
	out := cfg.String()
	for _, want := range []string{"[columns]", `origin = "from"`, `debounce = "500ms"`} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}

	var back Config
	if err := Decode([]byte(out), &back); err != nil {
		t.Fatalf("decoding String() output: %v", err)
	}
}
