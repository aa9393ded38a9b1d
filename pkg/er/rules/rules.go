// Package rules decides whether ER elements may be moved or deleted on their
// own.
//
// The rule engine is evaluated once per gesture. Diagram engines commonly ask
// the same question through several action names for one gesture (a single
// shape drag is both "shape.move" and "elements.move"), so decisions are
// memoized per command ID and action class; the second question is answered
// from the memo without re-running the containment queries.
//
// Rules fail open. A panic inside a predicate is recovered, logged and turned
// into Defer, which hands the decision back to the engine default. A broken
// rule must never freeze the editor.
package rules

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er/containment"
	"github.com/matzehuels/erkit/pkg/errors"
	"github.com/matzehuels/erkit/pkg/observability"
)

// DefaultPriority is the priority rules are registered with. It is above the
// engine's built-in rules so ER constraints are consulted first.
const DefaultPriority = 1500

// action classes used as memo keys.
const (
	classMove   = "move"
	classDelete = "delete"
)

// Metrics counts rule evaluations.
type Metrics struct {
	Evaluations int // decisions computed from scratch
	CacheHits   int // decisions served from the per-command memo
	Errors      int // evaluations that panicked and were treated as defer
}

// Engine evaluates ER movement and deletion rules.
//
// Engine is not safe for concurrent use; like the diagram engine it serves,
// it runs on the editor's single event loop.
type Engine struct {
	analyzer *containment.Analyzer
	logger   *log.Logger
	hooks    observability.RuleHooks

	memoID   string
	memo     map[string]diagram.Decision
	metrics  Metrics
	testHook func() // called before every evaluation; tests use it to inject panics
}

// New creates a rule engine. A nil logger falls back to log.Default(), nil
// hooks to the no-op implementation.
func New(analyzer *containment.Analyzer, logger *log.Logger, hooks observability.RuleHooks) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if hooks == nil {
		hooks = observability.NoopRuleHooks{}
	}
	return &Engine{analyzer: analyzer, logger: logger, hooks: hooks}
}

// Metrics returns the evaluation counters.
func (e *Engine) Metrics() Metrics { return e.metrics }

// Register installs the move and delete rules on p with the given priority.
func (e *Engine) Register(p diagram.RuleProvider, priority int) {
	p.AddRule(diagram.ActionElementsMove, priority, e.moveRule)
	p.AddRule(diagram.ActionShapeMove, priority, e.moveRule)
	p.AddRule(diagram.ActionElementsDelete, priority, e.deleteRule)
}

func (e *Engine) moveRule(ctx diagram.RuleContext) diagram.Decision {
	return e.memoized(ctx, classMove, func() diagram.Decision { return e.canMoveAll(ctx.Elements) })
}

func (e *Engine) deleteRule(ctx diagram.RuleContext) diagram.Decision {
	return e.memoized(ctx, classDelete, func() diagram.Decision { return e.canDelete(ctx.Elements) })
}

// memoized returns the decision for (ctx.CommandID, class), computing it with
// fn on first use. The memo only holds the current command: a new command ID
// discards it. Rule contexts without a command ID are never memoized.
func (e *Engine) memoized(ctx diagram.RuleContext, class string, fn func() diagram.Decision) diagram.Decision {
	bg := context.Background()
	if ctx.CommandID != "" {
		if ctx.CommandID != e.memoID {
			e.memoID = ctx.CommandID
			e.memo = make(map[string]diagram.Decision)
		}
		if dec, ok := e.memo[class]; ok {
			e.metrics.CacheHits++
			e.hooks.OnDecision(bg, ctx.Action, dec.String(), true)
			return dec
		}
	}
	dec := e.guard(ctx.Action, fn)
	if ctx.CommandID != "" {
		e.memo[class] = dec
	}
	e.hooks.OnDecision(bg, ctx.Action, dec.String(), false)
	e.logger.Debug("rule evaluated",
		"action", ctx.Action,
		"command", ctx.CommandID,
		"elements", len(ctx.Elements),
		"decision", dec)
	return dec
}

// guard runs fn and converts a panic into Defer.
func (e *Engine) guard(action string, fn func() diagram.Decision) (dec diagram.Decision) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.PanicError(errors.ErrCodeRuleEvaluation, r, "evaluate %s", action)
			e.metrics.Errors++
			e.hooks.OnRuleError(context.Background(), action, err)
			e.logger.Error("rule evaluation failed, deferring", "action", action, "err", err)
			dec = diagram.Defer
		}
	}()
	e.metrics.Evaluations++
	if e.testHook != nil {
		e.testHook()
	}
	return fn()
}

// =============================================================================
// Decisions
// =============================================================================

// CanMove decides whether el may move on its own:
//   - a connection whose endpoints share a container is denied; other
//     connections defer
//   - a contained shape is denied, it only moves with its container
//   - any other ER element is allowed to move freely
//   - everything else defers
func (e *Engine) CanMove(el *diagram.Element) diagram.Decision {
	return e.guard(diagram.ActionShapeMove, func() diagram.Decision { return e.canMove(el) })
}

func (e *Engine) canMove(el *diagram.Element) diagram.Decision {
	if el == nil {
		return diagram.Defer
	}
	if el.IsConnection() {
		if _, shared := e.analyzer.SharedContainer(el); shared {
			return diagram.Deny
		}
		return diagram.Defer
	}
	if _, contained := e.analyzer.ContainerOf(el); contained {
		return diagram.Deny
	}
	if e.analyzer.Classifier().Classify(el).IsER() {
		return diagram.Allow
	}
	return diagram.Defer
}

// CanMoveAll decides a multi-element move. Members whose container is part of
// the same batch are skipped because they move with it. Any remaining deny
// denies the batch; the batch is allowed when every remaining member is.
func (e *Engine) CanMoveAll(els []*diagram.Element) diagram.Decision {
	return e.guard(diagram.ActionElementsMove, func() diagram.Decision { return e.canMoveAll(els) })
}

func (e *Engine) canMoveAll(els []*diagram.Element) diagram.Decision {
	inBatch := batchIDs(els)
	considered, allowed := 0, 0
	for _, el := range els {
		if c, ok := e.holder(el); ok && inBatch[c.ID] {
			continue
		}
		considered++
		switch e.canMove(el) {
		case diagram.Deny:
			return diagram.Deny
		case diagram.Allow:
			allowed++
		}
	}
	if considered > 0 && allowed == considered {
		return diagram.Allow
	}
	return diagram.Defer
}

// CanDelete decides a delete batch, all or nothing: if any member is held by
// a container that is not itself being deleted, the whole batch is denied.
// Deleting only part of a group could leave a dangling contained child.
func (e *Engine) CanDelete(els []*diagram.Element) diagram.Decision {
	dec := e.guard(diagram.ActionElementsDelete, func() diagram.Decision { return e.canDelete(els) })
	if dec == diagram.Defer {
		return diagram.Allow
	}
	return dec
}

func (e *Engine) canDelete(els []*diagram.Element) diagram.Decision {
	inBatch := batchIDs(els)
	for _, el := range els {
		if c, ok := e.holder(el); ok && !inBatch[c.ID] {
			return diagram.Deny
		}
	}
	return diagram.Allow
}

// holder returns the container governing el: its container for a shape, the
// shared container of both endpoints for a connection.
func (e *Engine) holder(el *diagram.Element) (*diagram.Element, bool) {
	if el == nil {
		return nil, false
	}
	if el.IsConnection() {
		return e.analyzer.SharedContainer(el)
	}
	return e.analyzer.ContainerOf(el)
}

func batchIDs(els []*diagram.Element) map[string]bool {
	ids := make(map[string]bool, len(els))
	for _, el := range els {
		if el != nil {
			ids[el.ID] = true
		}
	}
	return ids
}
