package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/rows"
	"github.com/matzehuels/flowlens/pkg/state"
)

// Registry is an in-memory workspace store.
type Registry struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	ttl        time.Duration
	logger     *log.Logger
	now        func() time.Time
}

// NewRegistry creates a registry whose workspaces live for ttl. A zero ttl
// means [DefaultTTL]; a nil logger discards output.
func NewRegistry(ttl time.Duration, logger *log.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{
		workspaces: make(map[string]*Workspace),
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// TTL returns the workspace lifetime.
func (r *Registry) TTL() time.Duration { return r.ttl }

// Create loads ds into a new workspace. opts configure the initial state
// before the rows are loaded, so a mapping given with [state.WithMapping]
// is restricted to the columns of ds.
func (r *Registry) Create(ctx context.Context, ds rows.Dataset, opts ...state.Option) (*Workspace, error) {
	store := state.NewStore(state.New(opts...), r.logger.With("component", "state"))
	if _, err := store.LoadRows(ctx, ds); err != nil {
		return nil, err
	}

	now := r.now()
	ws := &Workspace{
		ID:        NewID(),
		Store:     store,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	r.workspaces[ws.ID] = ws
	r.mu.Unlock()

	r.logger.Debug("workspace created", "id", ws.ID, "rows", ds.Len())
	observability.Workspace().OnWorkspaceCreate(ctx, ws.ID, ds.Len())
	return ws, nil
}

// Get returns the workspace with id. It returns [ErrNotFound] for unknown
// IDs and [ErrExpired] for expired ones, which are dropped.
func (r *Registry) Get(ctx context.Context, id string) (*Workspace, error) {
	r.mu.RLock()
	ws, ok := r.workspaces[id]
	expired := ok && ws.expired(r.now())
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if expired {
		_ = r.Delete(ctx, id)
		return nil, ErrExpired
	}
	return ws, nil
}

// Pin keeps the workspace with id alive until it is deleted.
func (r *Registry) Pin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return ErrNotFound
	}
	ws.ExpiresAt = time.Time{}
	return nil
}

// Delete removes a workspace. Deleting an unknown ID is not an error.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()
	if ok {
		observability.Workspace().OnWorkspaceDelete(ctx, id)
	}
	return nil
}

// Len returns the number of workspaces, expired or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}

// Cleanup removes expired workspaces and returns how many were removed.
func (r *Registry) Cleanup(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, ws := range r.workspaces {
		if ws.expired(now) {
			delete(r.workspaces, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("expired workspaces removed", "count", removed, "remaining", len(r.workspaces))
		observability.Workspace().OnWorkspaceExpire(ctx, removed)
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done. It always returns
// nil so it can run in an errgroup beside the server.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Cleanup(ctx)
		}
	}
}
