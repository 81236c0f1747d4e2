package execs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
)

func TestWriteExecutor_CreatesFileAndParents(t *testing.T) {
	dir := t.TempDir()
	e := NewWriteExecutor(dir, true)

	action := actions.Action{Tag: "write", Attrs: map[string]string{"path": "nested/dir/out.txt"}, Body: "hello"}
	res, err := e.Execute(context.Background(), action)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}

	data, err := os.ReadFile(filepath.Join(dir, "nested/dir/out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected written content, got %q", data)
	}
}

func TestWriteExecutor_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	os.WriteFile(path, []byte("old"), 0o644)

	e := NewWriteExecutor(dir, true)
	e.Execute(context.Background(), actions.Action{Tag: "write", Attrs: map[string]string{"path": "out.txt"}, Body: "new"})

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}
