// Package cli implements the erkit command-line interface.
//
// The commands load ER diagram documents (see pkg/io), run them through an
// er.Modeler and write them back. The CLI is built using cobra and logs with
// charmbracelet/log.
//
// # Commands
//
//   - inspect: Print every element with its kind and containment
//   - validate: Check documents concurrently
//   - move, delete: Rule-gated gestures
//   - arrange: Reorganize the children of a composite container
//   - composite: Set or clear the composite flag of an attribute
//   - sync export, sync import: Attribute synchronization
//   - render: DOT, SVG, PDF or PNG output through Graphviz
//   - serve: The HTTP property-panel API
//   - cache: Manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a leveled logger with "15:04:05.00" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs a completion message with the time elapsed since it was
// created, e.g. "Rendered SVG (84ms)".
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

// withLogger attaches l to ctx.
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
