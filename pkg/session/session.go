// Package session keeps the workspaces of the HTTP API: one uploaded
// dataset with its view state per workspace.
//
// # Architecture
//
// A [Workspace] owns a [state.Store] and expires after a TTL. The
// [Registry] is an in-memory map of workspaces guarded by a mutex; expired
// workspaces are dropped on lookup and by [Registry.Cleanup], which
// [Registry.Run] calls on an interval.
//
// Workspaces live as long as the process. Nothing is written to disk.
//
// # Usage
//
//	reg := session.NewRegistry(session.DefaultTTL, logger)
//	ws, err := reg.Create(ctx, dataset, state.WithMapping(m))
//	...
//	ws, err = reg.Get(ctx, ws.ID)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowlens/pkg/state"
)

// Sentinel errors for workspace operations.
var (
	// ErrNotFound is returned when a workspace does not exist.
	ErrNotFound = errors.New("workspace not found")

	// ErrExpired is returned when a workspace has exceeded its TTL.
	ErrExpired = errors.New("workspace expired")
)

// Default durations.
const (
	// DefaultTTL is how long a workspace lives after creation.
	DefaultTTL = 2 * time.Hour

	// DefaultCleanupInterval is how often [Registry.Run] drops expired
	// workspaces.
	DefaultCleanupInterval = 5 * time.Minute
)

// Workspace is one dataset and its view state. A zero ExpiresAt means the
// workspace is pinned and never expires.
type Workspace struct {
	ID        string       `json:"id"`
	Store     *state.Store `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// IsExpired returns true if the workspace has expired.
func (w *Workspace) IsExpired() bool {
	return w.expired(time.Now())
}

func (w *Workspace) expired(now time.Time) bool {
	return !w.ExpiresAt.IsZero() && now.After(w.ExpiresAt)
}

// NewID creates a random workspace ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape of a workspace ID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
