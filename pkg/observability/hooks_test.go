package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRuleHooks{}
	r.OnDecision(ctx, "elements.move", "deny", false)
	r.OnRuleError(ctx, "elements.delete", nil)

	m := NoopMoveHooks{}
	m.OnGroupMove(ctx, "Composite_1", 2, nil)
	m.OnArrange(ctx, "Composite_1", 1, 0, time.Millisecond)

	s := NoopSyncHooks{}
	s.OnExport(ctx, "Entity", 4)
	s.OnImport(ctx, "Entity", 2)
	s.OnMismatch(ctx, "Entity", "isPrimaryKey")
}

func TestHooksWithDefaults(t *testing.T) {
	h := Hooks{}.WithDefaults()
	if _, ok := h.Rules.(NoopRuleHooks); !ok {
		t.Error("Rules should default to NoopRuleHooks")
	}
	if _, ok := h.Moves.(NoopMoveHooks); !ok {
		t.Error("Moves should default to NoopMoveHooks")
	}
	if _, ok := h.Sync.(NoopSyncHooks); !ok {
		t.Error("Sync should default to NoopSyncHooks")
	}
}

func TestHooksWithDefaultsKeepsCustom(t *testing.T) {
	custom := &testRuleHooks{}
	h := Hooks{Rules: custom}.WithDefaults()
	if h.Rules != custom {
		t.Error("WithDefaults should keep custom rule hooks")
	}
	if _, ok := h.Sync.(NoopSyncHooks); !ok {
		t.Error("Sync should default to NoopSyncHooks")
	}
}

func TestHooksAreInstanceScoped(t *testing.T) {
	a := &testRuleHooks{}
	b := &testRuleHooks{}
	ha := Hooks{Rules: a}.WithDefaults()
	hb := Hooks{Rules: b}.WithDefaults()

	ha.Rules.OnDecision(context.Background(), "elements.move", "allow", false)
	if a.decisions != 1 || b.decisions != 0 {
		t.Errorf("decisions = (%d, %d), want (1, 0)", a.decisions, b.decisions)
	}
	_ = hb
}

// Test implementations
type testRuleHooks struct {
	NoopRuleHooks
	decisions int
}

func (h *testRuleHooks) OnDecision(context.Context, string, string, bool) { h.decisions++ }
