// Package cache stores aggregated graphs, projections and rendered
// artifacts so repeated CLI runs and API calls skip work they already did.
//
// Three backends share the [Cache] interface:
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a Redis server, for API instances that share results
//   - [NullCache]: stores nothing, for --no-cache
//
// Keys come from a [Keyer]. Graph keys hash the dataset content together
// with the column mapping; projection keys hash the graph hash, view and
// parameters; artifact keys add the output format.
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry type.
const (
	TTLGraph      = 24 * time.Hour
	TTLProjection = 24 * time.Hour
	TTLArtifact   = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. Get reports a miss with
// hit=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// GraphKey identifies the aggregation of a dataset under a mapping.
	GraphKey(datasetHash string, mapping any) string
	// ProjectionKey identifies one view projection of a graph.
	ProjectionKey(graphHash, view string, params any) string
	// ArtifactKey identifies a rendered projection.
	ArtifactKey(projectionKey string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change the output bytes.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Direction  string `json:"direction,omitempty"`
	ShowValues bool   `json:"show_values,omitempty"`
}

// DefaultKeyer builds keys of the form "type:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey hashes the dataset hash and mapping.
func (DefaultKeyer) GraphKey(datasetHash string, mapping any) string {
	return hashKey("graph", datasetHash, mapping)
}

// ProjectionKey hashes the graph hash, view and params.
func (DefaultKeyer) ProjectionKey(graphHash, view string, params any) string {
	return hashKey("projection", graphHash, view, params)
}

// ArtifactKey hashes the projection key and render options.
func (DefaultKeyer) ArtifactKey(projectionKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", projectionKey, opts)
}
