// Package pipeline runs the load → aggregate → project → render pipeline of
// flowlens for the CLI and the HTTP API.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: read a CSV or JSON row file into a [rows.Dataset]
//  2. Aggregate: fold the rows into a weighted edge list under a mapping
//  3. Project: compute one view payload (flow, force, ego or map)
//  4. Render: write the payload as JSON, DOT or SVG
//
// Aggregation, projection and rendering are cached. Keys combine the hash
// of the input file with the mapping, view and parameters, so editing the
// file invalidates every entry that was built from it.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "trips.csv",
//	    Mapping: flow.Mapping{Origin: "from", Destination: "to", Weight: "trips"},
//	    View:    "flow",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	ds, hash, err := runner.Load(ctx, opts)
//	report, err := runner.Aggregate(ctx, ds, hash, opts)
//	proj, err := runner.Project(ctx, ds, hash, opts)
//	artifacts, err := runner.Render(ctx, proj, hash, opts)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/render/nodelink"
	"github.com/matzehuels/flowlens/pkg/rows"
	"github.com/matzehuels/flowlens/pkg/state"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultView is the view projected when none is given.
const DefaultView = state.ViewFlow

// DefaultDirection is the rank direction of flow and ego diagrams.
const DefaultDirection = "LR"

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Load options
	Input       string `json:"input,omitempty"`
	InputFormat string `json:"input_format,omitempty"` // csv or json; empty infers from the extension

	// Aggregate options
	Mapping flow.Mapping `json:"mapping"`

	// Project options
	View   string       `json:"view,omitempty"`
	Params state.Params `json:"params"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	ShowValues bool     `json:"show_values,omitempty"`

	// Refresh bypasses cache reads; fresh results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-"`

	validated bool
}

// Report is the result of the aggregate stage.
type Report struct {
	Rows        int         `json:"rows"`
	ValidRows   int         `json:"validRows"`
	Nodes       []string    `json:"nodes"`
	Edges       []flow.Edge `json:"edges"`
	TotalWeight float64     `json:"totalWeight"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DatasetHash is the content hash of the input file.
	DatasetHash string

	// Projection is the computed view.
	Projection *state.Projection

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RowCount    int
	EdgeCount   int
	LoadTime    time.Duration
	ProjectTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ProjectHit bool // Whether the projection came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDirection checks that a rank direction is valid.
func ValidateDirection(dir string) error {
	if !nodelink.Directions[dir] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid direction: %q (must be one of: LR, RL, TB, BT)", dir)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every stage's fields and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForProject(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input fields.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input file is required")
	}
	switch o.InputFormat {
	case "", rows.FormatCSV, rows.FormatJSON:
	default:
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid input format: %q (must be csv or json)", o.InputFormat)
	}
	return nil
}

// ValidateForAggregate checks the mapping.
func (o *Options) ValidateForAggregate() error {
	return o.Mapping.Validate()
}

// ValidateForProject checks the mapping, view and parameters, and fills in
// the view's default parameters when none were given.
func (o *Options) ValidateForProject() error {
	if err := o.ValidateForAggregate(); err != nil {
		return err
	}
	o.SetProjectDefaults()
	if _, err := state.ParseView(o.View); err != nil {
		return err
	}
	return o.Params.Validate()
}

// SetProjectDefaults sets the default view and its default top-N.
func (o *Options) SetProjectDefaults() {
	if o.View == "" {
		o.View = string(DefaultView)
	}
	if o.Params.TopN == 0 {
		o.Params.TopN = state.DefaultParams(state.ViewID(o.View)).TopN
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateDirection(o.Direction)
}

// ViewID returns the validated view. Call after ValidateForProject.
func (o *Options) ViewID() state.ViewID { return state.ViewID(o.View) }

// NodelinkOptions returns the DOT options for rendering.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{Direction: o.Direction, ShowValues: o.ShowValues}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Direction:  o.Direction,
		ShowValues: o.ShowValues,
	}
}
