package execs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

func TestMultiEditExecutor_AppliesAllEditsAtomically(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.go", "const a = 1\nconst b = 2\n")

	e := NewMultiEditExecutor(dir, true)
	body := "<edit><search>a = 1</search><replace>a = 10</replace></edit>" +
		"<edit><search>b = 2</search><replace>b = 20</replace></edit>"
	res, err := e.Execute(context.Background(), actions.Action{Tag: "multi-edit", Attrs: map[string]string{"path": "a.go"}, Body: body})
	if err != nil || !res.OK {
		t.Fatalf("expected success, got %+v err=%v", res, err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "a.go"))
	if string(data) != "const a = 10\nconst b = 20\n" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestMultiEditExecutor_NoEditPersistedIfAnyFails(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.go", "const a = 1\nconst b = 2\n")

	e := NewMultiEditExecutor(dir, true)
	body := "<edit><search>a = 1</search><replace>a = 10</replace></edit>" +
		"<edit><search>nope</search><replace>x</replace></edit>"
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "multi-edit", Attrs: map[string]string{"path": "a.go"}, Body: body})
	if res.OK || res.Error.Code != kernel.ErrPatternNotFound {
		t.Fatalf("expected PATTERN_NOT_FOUND, got %+v", res)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "a.go"))
	if string(data) != "const a = 1\nconst b = 2\n" {
		t.Fatalf("expected file unchanged after failed edit, got %q", data)
	}
}
