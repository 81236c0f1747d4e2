package agent

import (
	"testing"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/execs"
)

func TestLoop_DedupeReads_AllowsFirstReadOfEachPath(t *testing.T) {
	l := &Loop{reads: execs.NewReadExecutor(t.TempDir(), false), maxDuplicateReads: 3, dupReads: make(map[string]int)}
	in := []actions.Action{
		{Tag: "read", Attrs: map[string]string{"path": "a.go"}},
		{Tag: "read", Attrs: map[string]string{"path": "b.go"}},
	}
	out, dupBreak := l.dedupeReads(in)
	if dupBreak {
		t.Fatal("unexpected dup break on first reads")
	}
	if len(out) != 2 {
		t.Fatalf("expected both reads to pass through, got %d", len(out))
	}
}

func TestLoop_DedupeReads_DropsSecondReadSilently(t *testing.T) {
	l := &Loop{reads: execs.NewReadExecutor(t.TempDir(), false), maxDuplicateReads: 3, dupReads: make(map[string]int)}

	// Round 1: the model reads a.go for the first time; dedupeReads lets it
	// through and the loop would execute it (not simulated here — the
	// counter advances purely from dedupeReads seeing the path).
	first, dupBreak := l.dedupeReads([]actions.Action{{Tag: "read", Attrs: map[string]string{"path": "a.go"}}})
	if dupBreak || len(first) != 1 {
		t.Fatalf("expected first read to pass through, got out=%v dupBreak=%v", first, dupBreak)
	}

	// Round 2: the model re-emits the same read. A lone repeat is dropped
	// rather than breaking the round.
	out, dupBreak := l.dedupeReads([]actions.Action{{Tag: "read", Attrs: map[string]string{"path": "a.go"}}})
	if dupBreak {
		t.Fatal("expected a single repeat to be dropped, not break the round")
	}
	if len(out) != 0 {
		t.Fatalf("expected repeat read filtered out, got %d actions", len(out))
	}
}

func TestLoop_DedupeReads_BreaksAtThreshold(t *testing.T) {
	l := &Loop{reads: execs.NewReadExecutor(t.TempDir(), false), maxDuplicateReads: 3, dupReads: make(map[string]int)}

	// Round 1 and 2 mirror TestLoop_DedupeReads_DropsSecondReadSilently: the
	// model keeps re-emitting <read path="a.go"/> across the turn's rounds,
	// exactly as Loop.Chat would feed it back round after round, without
	// ever calling the read executor directly.
	l.dedupeReads([]actions.Action{{Tag: "read", Attrs: map[string]string{"path": "a.go"}}})
	l.dedupeReads([]actions.Action{{Tag: "read", Attrs: map[string]string{"path": "a.go"}}})

	// Round 3: the third occurrence of the same path hits the threshold and
	// must break the round with a corrective message.
	_, dupBreak := l.dedupeReads([]actions.Action{{Tag: "read", Attrs: map[string]string{"path": "a.go"}}})
	if !dupBreak {
		t.Fatal("expected third repeat read to hit the duplicate threshold")
	}
}

func TestLoop_DedupeReads_NonReadActionsPassThroughUntouched(t *testing.T) {
	l := &Loop{reads: execs.NewReadExecutor(t.TempDir(), false), maxDuplicateReads: 3, dupReads: make(map[string]int)}
	in := []actions.Action{{Tag: "bash", Attrs: map[string]string{"cmd": "echo hi"}}}
	out, dupBreak := l.dedupeReads(in)
	if dupBreak || len(out) != 1 {
		t.Fatalf("expected non-read action untouched, got out=%v dupBreak=%v", out, dupBreak)
	}
}

func TestLooksLikeFencedAction(t *testing.T) {
	if !looksLikeFencedAction("```\n<read path=\"a.go\"/>\n```", nil) {
		t.Error("expected a fenced recognised tag to be detected")
	}
	if looksLikeFencedAction("just plain prose, no tags here", nil) {
		t.Error("expected plain prose not to be flagged")
	}
}
