// Package cli implements the flowlens command-line interface.
//
// Commands read a CSV or JSON row file, aggregate it into a weighted edge
// list and project the views. The CLI is built using cobra and logs with
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - aggregate: fold rows into edges and list the heaviest
//   - project: compute one view and write it as JSON, DOT or SVG
//   - options: list the origins, destinations and ego nodes of a file
//   - explore: pick an ego focus in an interactive list
//   - serve: run the workspace HTTP API, optionally watching a file
//   - cache, config: inspect the cache and the effective config
//
// # Configuration
//
// Column roles and view defaults come from flowlens.toml (see --config);
// flags override them.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes to w at level, with timestamps like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a stage took, e.g. "Projected flow (12ms)".
// It is meant for one goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey struct{}

// withLogger attaches l to ctx for the command's helpers.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the attached logger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
