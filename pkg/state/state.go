// Package state holds the view model of one dataset: rows, column mapping,
// the aggregated graph and the last projection of every view.
//
// A [State] is immutable. Commands such as [State.LoadRows] and
// [State.SetColumnMapping] return a new State and leave the receiver as it
// was, so a reader holding an old State never sees a half-rebuilt graph.
// [Store] serializes commands and publishes each new State to subscribers.
package state

import (
	"context"
	"maps"
	"time"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/project"
	"github.com/matzehuels/flowlens/pkg/rows"
)

// Projection is the last computed payload of one view. Exactly one of Flow,
// Ego and Map is set, depending on the view kind.
type Projection struct {
	View    ViewID               `json:"view"`
	Params  Params               `json:"params"`
	Flow    *project.FlowPayload `json:"flow,omitempty"`
	Ego     *project.EgoPayload  `json:"ego,omitempty"`
	Map     *project.MapPayload  `json:"map,omitempty"`
	Summary project.Summary      `json:"summary"`
}

// Payload returns whichever payload is set.
func (p *Projection) Payload() any {
	switch {
	case p.Flow != nil:
		return p.Flow
	case p.Ego != nil:
		return p.Ego
	default:
		return p.Map
	}
}

// Status returns the status of the payload.
func (p *Projection) Status() project.Status {
	switch {
	case p.Flow != nil:
		return p.Flow.Status
	case p.Ego != nil:
		return p.Ego.Status
	case p.Map != nil:
		return p.Map.Status
	}
	return project.StatusNoData
}

// State is one immutable snapshot of the view model.
type State struct {
	dataset     rows.Dataset
	mapping     flow.Mapping
	graph       *flow.Graph
	params      map[ViewID]Params
	projections map[ViewID]*Projection
	active      ViewID
	version     uint64
}

// Option customizes a new State.
type Option func(*State)

// WithMapping sets the initial column mapping.
func WithMapping(m flow.Mapping) Option {
	return func(s *State) { s.mapping = m }
}

// WithParams sets the initial parameters of view.
func WithParams(view ViewID, p Params) Option {
	return func(s *State) { s.params[view] = p }
}

// New returns an empty State with default view parameters and the flow view
// active.
func New(opts ...Option) *State {
	s := &State{
		params:      make(map[ViewID]Params, len(Views)),
		projections: make(map[ViewID]*Projection),
		active:      ViewFlow,
	}
	for _, v := range Views {
		s.params[v] = DefaultParams(v)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.graph = emptyGraph()
	return s
}

func emptyGraph() *flow.Graph {
	g, _ := flow.Build(nil, flow.Mapping{})
	return g
}

// clone copies s with fresh maps so the copy can be modified.
func (s *State) clone() *State {
	c := *s
	c.params = maps.Clone(s.params)
	c.projections = maps.Clone(s.projections)
	c.version = s.version + 1
	return &c
}

// =============================================================================
// Commands
// =============================================================================

// LoadRows replaces the dataset. Mapping roles whose column is missing from
// ds are cleared; the graph is rebuilt and every view that was projected
// before is projected again.
func (s *State) LoadRows(ctx context.Context, ds rows.Dataset) (*State, error) {
	next := s.clone()
	next.dataset = ds
	next.mapping = s.mapping.Restrict(ds)
	if err := next.rebuild(ctx); err != nil {
		return s, err
	}
	return next, nil
}

// SetColumnMapping changes the column roles. A mapping with the same column
// for origin and destination, or one naming a column the dataset does not
// have, is rejected and s is returned unchanged alongside the error.
func (s *State) SetColumnMapping(ctx context.Context, m flow.Mapping) (*State, error) {
	if err := m.Validate(); err != nil {
		return s, err
	}
	if len(s.dataset.Columns) > 0 {
		if missing := m.Missing(s.dataset); len(missing) > 0 {
			return s, errors.New(errors.ErrCodeInvalidColumn,
				"unknown column %q", missing[0])
		}
	}
	next := s.clone()
	next.mapping = m
	if err := next.rebuild(ctx); err != nil {
		return s, err
	}
	return next, nil
}

// SetViewParams stores p for view and projects that view only.
func (s *State) SetViewParams(ctx context.Context, view ViewID, p Params) (*State, error) {
	if view.Kind() == "" {
		return s, errors.New(errors.ErrCodeInvalidView, "unknown view %q", view)
	}
	if err := p.Validate(); err != nil {
		return s, err
	}
	next := s.clone()
	next.params[view] = p
	next.projections[view] = next.project(ctx, view)
	return next, nil
}

// SetActiveView switches the active view without recomputing anything.
func (s *State) SetActiveView(view ViewID) (*State, error) {
	if view.Kind() == "" {
		return s, errors.New(errors.ErrCodeInvalidView, "unknown view %q", view)
	}
	next := s.clone()
	next.active = view
	return next, nil
}

// EnsureProjection projects view if it has no projection yet.
func (s *State) EnsureProjection(ctx context.Context, view ViewID) (*State, error) {
	if view.Kind() == "" {
		return s, errors.New(errors.ErrCodeInvalidView, "unknown view %q", view)
	}
	if _, ok := s.projections[view]; ok {
		return s, nil
	}
	next := s.clone()
	next.projections[view] = next.project(ctx, view)
	return next, nil
}

// rebuild aggregates the rows under the current mapping and refreshes the
// projections that exist.
func (s *State) rebuild(ctx context.Context) error {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnAggregateStart(ctx, s.dataset.Len())
	g, err := flow.Build(s.dataset.Rows, s.mapping)
	if err != nil {
		hooks.OnAggregateComplete(ctx, 0, time.Since(start), err)
		return err
	}
	hooks.OnAggregateComplete(ctx, len(g.Edges()), time.Since(start), nil)

	s.graph = g
	for view := range s.projections {
		s.projections[view] = s.project(ctx, view)
	}
	return nil
}

func (s *State) project(ctx context.Context, view ViewID) *Projection {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnProjectStart(ctx, string(view))

	p := Project(s.graph, view, s.params[view])

	var n int
	switch {
	case p.Flow != nil:
		n = len(p.Flow.Edges)
	case p.Ego != nil:
		n = len(p.Ego.Edges)
	case p.Map != nil:
		n = len(p.Map.Edges)
	}
	hooks.OnProjectComplete(ctx, string(view), n, time.Since(start))
	return p
}

// Project computes the projection of view over g with params.
func Project(g *flow.Graph, view ViewID, params Params) *Projection {
	p := &Projection{View: view, Params: params}
	switch view.Kind() {
	case KindFlow:
		fp := project.TopN(g, params.topN())
		p.Flow, p.Summary = &fp, fp.Summary()
	case KindForce:
		fp := project.Force(g, params.topN())
		p.Flow, p.Summary = &fp, fp.Summary()
	case KindEgo:
		ep := project.Ego(g, params.Focus)
		p.Ego, p.Summary = &ep, ep.Summary(g)
	case KindMap:
		mp := project.Geo(g, params.geo())
		p.Map, p.Summary = &mp, mp.Summary(g)
	}
	return p
}

// =============================================================================
// Accessors
// =============================================================================

// Dataset returns the loaded rows.
func (s *State) Dataset() rows.Dataset { return s.dataset }

// Mapping returns the current column mapping.
func (s *State) Mapping() flow.Mapping { return s.mapping }

// Graph returns the aggregated graph.
func (s *State) Graph() *flow.Graph { return s.graph }

// Active returns the active view.
func (s *State) Active() ViewID { return s.active }

// Version increases by one with every command that produced a new State.
func (s *State) Version() uint64 { return s.version }

// Params returns the parameters of view.
func (s *State) Params(view ViewID) Params { return s.params[view] }

// Projection returns the last projection of view, if any.
func (s *State) Projection(view ViewID) (*Projection, bool) {
	p, ok := s.projections[view]
	return p, ok
}

// ActiveStats returns the summary of the active view: the last computed one,
// or the graph totals with nothing displayed when the view was never
// projected.
func (s *State) ActiveStats() project.Summary {
	return s.Stats(s.active)
}

// Stats returns the summary of view.
func (s *State) Stats(view ViewID) project.Summary {
	if p, ok := s.projections[view]; ok {
		return p.Summary
	}
	return project.TotalsSummary(len(s.graph.Edges()), s.graph.TotalWeight())
}

// OriginOptions returns the sorted distinct sources of the graph.
func (s *State) OriginOptions() []string { return s.graph.Index().Sources() }

// DestinationOptions returns the sorted distinct targets of the graph.
func (s *State) DestinationOptions() []string { return s.graph.Index().Targets() }

// EgoOptions returns the sorted distinct values of the destination column.
// It is available as soon as the destination column is set.
func (s *State) EgoOptions() []string {
	if s.mapping.Destination == "" {
		return []string{}
	}
	opts := rows.DistinctText(s.dataset.Rows, s.mapping.Destination)
	if opts == nil {
		return []string{}
	}
	return opts
}
