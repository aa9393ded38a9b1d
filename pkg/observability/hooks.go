// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation of the ER core without adding
// hard dependencies on specific observability backends. Consumers implement
// the hook interfaces and hand them to the components that emit the events.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Inject implementations through constructors
//
// There is deliberately no process-wide registry: two modelers in the same
// process (for example, two documents served by the HTTP API) report to
// whatever hooks they were constructed with.
//
// # Usage
//
//	hooks := observability.Hooks{Rules: &myRuleHooks{}}
//	m := er.New(engine, er.Options{Hooks: hooks})
//
// Components emit events through the resolved hooks:
//
//	h := hooks.WithDefaults()
//	h.Rules.OnDecision(ctx, "elements.move", "deny", false)
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Rule Hooks
// =============================================================================

// RuleHooks receives events from the movement rule engine.
type RuleHooks interface {
	// OnDecision records a rule decision. cached is true when the decision
	// was served from the per-command memo.
	OnDecision(ctx context.Context, action, decision string, cached bool)

	// OnRuleError records a rule that failed and was treated as defer.
	OnRuleError(ctx context.Context, action string, err error)
}

// =============================================================================
// Move Hooks
// =============================================================================

// MoveHooks receives events from group movement and auto-layout.
type MoveHooks interface {
	// OnGroupMove records a container move propagated to its children.
	OnGroupMove(ctx context.Context, containerID string, children int, err error)

	// OnArrange records an auto-layout pass over a container.
	OnArrange(ctx context.Context, containerID string, moved, skipped int, duration time.Duration)
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from attribute synchronization.
type SyncHooks interface {
	// OnExport records an attribute export for one element.
	OnExport(ctx context.Context, kind string, attrs int)

	// OnImport records a property import for one element.
	OnImport(ctx context.Context, kind string, props int)

	// OnMismatch records a property or attribute with no slot for its kind.
	OnMismatch(ctx context.Context, kind, key string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRuleHooks is a no-op implementation of RuleHooks.
type NoopRuleHooks struct{}

func (NoopRuleHooks) OnDecision(context.Context, string, string, bool) {}
func (NoopRuleHooks) OnRuleError(context.Context, string, error)       {}

// NoopMoveHooks is a no-op implementation of MoveHooks.
type NoopMoveHooks struct{}

func (NoopMoveHooks) OnGroupMove(context.Context, string, int, error)            {}
func (NoopMoveHooks) OnArrange(context.Context, string, int, int, time.Duration) {}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnExport(context.Context, string, int)      {}
func (NoopSyncHooks) OnImport(context.Context, string, int)      {}
func (NoopSyncHooks) OnMismatch(context.Context, string, string) {}

// =============================================================================
// Hook Set
// =============================================================================

// Hooks bundles the hook implementations handed to a modeler. Nil fields are
// replaced by no-op implementations in WithDefaults.
type Hooks struct {
	Rules RuleHooks
	Moves MoveHooks
	Sync  SyncHooks
}

// WithDefaults returns a copy of h with every nil hook replaced by its no-op
// implementation.
func (h Hooks) WithDefaults() Hooks {
	if h.Rules == nil {
		h.Rules = NoopRuleHooks{}
	}
	if h.Moves == nil {
		h.Moves = NoopMoveHooks{}
	}
	if h.Sync == nil {
		h.Sync = NoopSyncHooks{}
	}
	return h
}
