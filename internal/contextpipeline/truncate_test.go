package contextpipeline

import "testing"

func TestTruncate_UnderBudgetReturnsUnchanged(t *testing.T) {
	cfg := TruncateConfig{ContextLimit: 1000, ToolResultMaxContextShare: 0.5, ToolResultHardMax: 200, ToolResultMinKeep: 20}
	s := "short string"
	if got := Truncate(s, cfg, 0); got != s {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}

func TestTruncate_OverBudgetGetsMarker(t *testing.T) {
	cfg := TruncateConfig{ContextLimit: 1000, ToolResultMaxContextShare: 0.1, ToolResultHardMax: 500, ToolResultMinKeep: 10}
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	got := Truncate(string(long), cfg, 0)
	if !HasTruncationMarker(got) {
		t.Fatalf("expected truncation marker, got suffix %q", got[max(0, len(got)-20):])
	}
	available := cfg.Available(0)
	if len(got) != available {
		t.Fatalf("expected truncated length to equal available budget %d, got %d", available, len(got))
	}
}

func TestTruncate_NeverBelowMinKeep(t *testing.T) {
	cfg := TruncateConfig{ContextLimit: 100, ToolResultMaxContextShare: 0.1, ToolResultHardMax: 50, ToolResultMinKeep: 30}
	// occupancy pushes byShare deep negative; available must clamp to MinKeep.
	if got := cfg.Available(1000); got != 30 {
		t.Fatalf("expected Available to clamp to MinKeep=30, got %d", got)
	}
}

func TestExploreAggregator_ClearOnNewTurn(t *testing.T) {
	agg := NewExploreAggregator(5)
	agg.Enqueue("tab1", ExploreEvent{Tool: "grep", Line: "match 1"})
	agg.Enqueue("tab1", ExploreEvent{Tool: "grep", Line: "match 2"})
	if agg.Count("tab1") != 2 {
		t.Fatalf("expected 2 queued events")
	}
	agg.ClearTab("tab1")
	if agg.Count("tab1") != 0 {
		t.Fatalf("expected queue cleared on new turn")
	}
}

func TestExploreAggregator_PreviewSummarisesOlder(t *testing.T) {
	agg := NewExploreAggregator(2)
	for i := 0; i < 5; i++ {
		agg.Enqueue("tab1", ExploreEvent{Tool: "ls", Line: "line"})
	}
	preview := agg.Preview("tab1")
	if !contains(preview, "+3 older updates") {
		t.Fatalf("expected older-updates summary, got %q", preview)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
