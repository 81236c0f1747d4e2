package execs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
)

func TestReadExecutor_ReturnsContent(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("line1\nline2\nline3"), 0o644)

	e := NewReadExecutor(dir, true)
	res, err := e.Execute(context.Background(), actions.Action{Tag: "read", Attrs: map[string]string{"path": "a.txt"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.ForLLM != "line1\nline2\nline3" {
		t.Fatalf("unexpected content: %q", res.ForLLM)
	}
}

func TestReadExecutor_OffsetLimit(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("l0\nl1\nl2\nl3\nl4"), 0o644)

	e := NewReadExecutor(dir, true)
	res, err := e.Execute(context.Background(), actions.Action{Tag: "read", Attrs: map[string]string{"path": "a.txt", "offset": "1", "limit": "2"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.ForLLM != "l1\nl2" {
		t.Fatalf("expected sliced window, got %q", res.ForLLM)
	}
}

func TestReadExecutor_RejectsEscapingWorkspace(t *testing.T) {
	dir := t.TempDir()
	e := NewReadExecutor(dir, true)
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "read", Attrs: map[string]string{"path": "../../etc/passwd"}})
	if res.OK {
		t.Fatal("expected path escape to be denied")
	}
}

func TestReadExecutor_TracksDuplicates(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644)
	e := NewReadExecutor(dir, true)

	action := actions.Action{Tag: "read", Attrs: map[string]string{"path": "a.txt"}}
	if e.DuplicateCount("a.txt") != 0 {
		t.Fatal("expected zero reads before first call")
	}
	e.Execute(context.Background(), action)
	if e.DuplicateCount("a.txt") != 1 {
		t.Fatal("expected one read recorded")
	}
	e.Execute(context.Background(), action)
	if e.DuplicateCount("a.txt") != 2 {
		t.Fatal("expected two reads recorded")
	}
	e.ResetTurn()
	if e.DuplicateCount("a.txt") != 0 {
		t.Fatal("expected counters cleared after ResetTurn")
	}
}
