// Package pkg holds the libraries behind flowlens.
//
// # Overview
//
// Flowlens turns tabular origin/destination records into a weighted flow
// graph and projects that graph into several views. Data moves through the
// packages in one direction:
//
//	row file (CSV / JSON)
//	         ↓
//	    [rows]     parse into a Dataset
//	         ↓
//	    [flow]     map columns, fold rows into weighted edges
//	         ↓
//	    [project]  top-N flows, force graph, ego networks, geo map
//	         ↓
//	    [nodelink] DOT and SVG
//
// Each stage is its own package: [rows] reads files, [flow] aggregates,
// [project] computes view payloads and [nodelink] draws them.
//
// [state] ties the stages together as an immutable snapshot with a command
// API, and [session] keeps one [state.Store] per workspace for the HTTP
// server. [pipeline] runs the same stages for the CLI with content-addressed
// caching through [cache].
//
// # Quick Start
//
//	ds, _ := rows.ReadFile("trips.csv")
//	s, _ := state.New(state.WithMapping(flow.Mapping{
//	    Origin:      "from",
//	    Destination: "to",
//	    Weight:      "trips",
//	})).LoadRows(ctx, ds)
//
//	s, _ = s.SetViewParams(ctx, state.ViewFlow, state.Params{TopN: 10})
//	s, _ = s.EnsureProjection(ctx, state.ViewFlow)
//	p, _ := s.Projection(state.ViewFlow)
//	fmt.Println(p.Summary.Label)
//
// # Supporting Packages
//
//   - [errors]: coded errors with user messages and HTTP status mapping
//   - [config]: TOML configuration with defaults
//   - [observability]: hook registry for pipeline and HTTP events
//   - [buildinfo]: version information set at build time
//
// [rows]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/rows
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/flow
// [project]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/project
// [nodelink]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/render/nodelink
// [state]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/state
// [state.Store]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/state#Store
// [session]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/errors
// [config]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/buildinfo
package pkg
