package server

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/project"
	"github.com/matzehuels/flowlens/pkg/render/nodelink"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/state"
)

// =============================================================================
// Response types
// =============================================================================

type createdResponse struct {
	ID        string    `json:"id"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type workspaceResponse struct {
	ID          string          `json:"id"`
	Version     uint64          `json:"version"`
	Rows        int             `json:"rows"`
	ValidRows   int             `json:"validRows"`
	Columns     []string        `json:"columns"`
	Mapping     flow.Mapping    `json:"mapping"`
	Edges       int             `json:"edges"`
	TotalWeight float64         `json:"totalWeight"`
	Active      state.ViewID    `json:"active"`
	Stats       project.Summary `json:"stats"`
	Options     viewOptions     `json:"options"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

type viewOptions struct {
	Origins      []string `json:"origins"`
	Destinations []string `json:"destinations"`
	Ego          []string `json:"ego"`
}

type activeRequest struct {
	View string `json:"view"`
}

type activeResponse struct {
	Active state.ViewID    `json:"active"`
	Stats  project.Summary `json:"stats"`
}

func describe(ws *session.Workspace, s *state.State) workspaceResponse {
	ds := s.Dataset()
	cols := ds.Columns
	if cols == nil {
		cols = []string{}
	}
	return workspaceResponse{
		ID:          ws.ID,
		Version:     s.Version(),
		Rows:        ds.Len(),
		ValidRows:   s.Graph().ValidRowCount(),
		Columns:     cols,
		Mapping:     s.Mapping(),
		Edges:       len(s.Graph().Edges()),
		TotalWeight: s.Graph().TotalWeight(),
		Active:      s.Active(),
		Stats:       s.ActiveStats(),
		Options: viewOptions{
			Origins:      nonNil(s.OriginOptions()),
			Destinations: nonNil(s.DestinationOptions()),
			Ego:          s.EgoOptions(),
		},
		ExpiresAt: ws.ExpiresAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"workspaces": s.registry.Len(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ds, err := s.readRows(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.registry.Create(r.Context(), ds, s.opts.StateOptions...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("workspace created", "id", ws.ID, "rows", ds.Len())

	cols := ds.Columns
	if cols == nil {
		cols = []string{}
	}
	s.writeJSON(w, http.StatusCreated, createdResponse{
		ID:        ws.ID,
		Rows:      ds.Len(),
		Columns:   cols,
		ExpiresAt: ws.ExpiresAt,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, describe(ws, ws.Store.Current()))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := s.registry.Delete(r.Context(), ws.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadRows(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	ds, err := s.readRows(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := ws.Store.LoadRows(r.Context(), ds)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, describe(ws, next))
}

func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var m flow.Mapping
	if err := decodeJSON(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := ws.Store.SetColumnMapping(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, describe(ws, next))
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	view, err := state.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p state.Params
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := ws.Store.SetViewParams(r.Context(), view, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	proj, _ := next.Projection(view)
	s.writeJSON(w, http.StatusOK, proj)
}

// handleGetView returns the last projection of a view, computing it if the
// view was never projected. ?format=dot or ?format=svg renders it instead;
// ?direction and ?values=true tune the diagram.
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	view, err := state.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	proj, err := ws.Store.EnsureProjection(r.Context(), view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" || format == pipeline.FormatJSON {
		s.writeJSON(w, http.StatusOK, proj)
		return
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := nodelink.Options{Direction: q.Get("direction"), ShowValues: q.Get("values") == "true"}
	if opts.Direction != "" {
		if err := pipeline.ValidateDirection(opts.Direction); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	dot := pipeline.DOT(proj, opts)
	if format == pipeline.FormatDOT {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
		return
	}
	// The key is only safe when the projection still belongs to the
	// current graph; a concurrent reload renders uncached.
	var key string
	if cur := ws.Store.Current(); cur.Graph() != nil {
		if p, ok := cur.Projection(view); ok && p == proj {
			key = artifactKey(s.keyer, cur.Graph(), proj, opts)
		}
	}
	svg, err := s.renderSVG(r.Context(), key, dot)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := state.ParseView(req.View)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := ws.Store.SetActiveView(r.Context(), view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, activeResponse{Active: next.Active(), Stats: next.ActiveStats()})
}

// workspace resolves the {id} URL parameter, writing a WORKSPACE_NOT_FOUND
// error when it names no live workspace.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*session.Workspace, bool) {
	id := chi.URLParam(r, "id")
	if !session.ValidID(id) {
		s.writeError(w, r, errors.New(errors.ErrCodeWorkspaceNotFound, "workspace %q not found", id))
		return nil, false
	}
	ws, err := s.registry.Get(r.Context(), id)
	switch {
	case stderrors.Is(err, session.ErrExpired):
		s.writeError(w, r, errors.Wrap(errors.ErrCodeWorkspaceNotFound, err, "workspace %s expired", id))
		return nil, false
	case err != nil:
		s.writeError(w, r, errors.Wrap(errors.ErrCodeWorkspaceNotFound, err, "workspace %s not found", id))
		return nil, false
	}
	return ws, true
}
