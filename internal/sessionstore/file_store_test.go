package sessionstore

import (
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/slashbot/internal/providers"
)

func TestFileStore_GetOrCreateAndAddMessage(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	s := fs.GetOrCreate("agent:default")
	if s.Key != "agent:default" {
		t.Fatalf("expected key to round-trip, got %q", s.Key)
	}

	fs.AddMessage("agent:default", providers.Message{Role: "user", Content: "hi"})
	history := fs.GetHistory("agent:default")
	if len(history) != 1 || history[0].Content != "hi" {
		t.Fatalf("expected one message in history, got %+v", history)
	}
}

func TestFileStore_CompressHistory_KeepsFirstPlusLastN(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	key := "agent:default"
	for i := 0; i < 10; i++ {
		fs.AddMessage(key, providers.Message{Role: "user", Content: string(rune('a' + i))})
	}

	fs.CompressHistory(key, 3)
	history := fs.GetHistory(key)
	if len(history) != 4 {
		t.Fatalf("expected 1+3=4 messages after compression, got %d", len(history))
	}
	if history[0].Content != "a" {
		t.Fatalf("expected message 0 to survive compression, got %q", history[0].Content)
	}
	if history[1].Content != "h" || history[3].Content != "j" {
		t.Fatalf("expected the last 3 messages to survive, got %+v", history)
	}
}

func TestFileStore_CompressHistory_Idempotent(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	key := "agent:default"
	for i := 0; i < 10; i++ {
		fs.AddMessage(key, providers.Message{Role: "user", Content: string(rune('a' + i))})
	}

	fs.CompressHistory(key, 3)
	first := fs.GetHistory(key)
	fs.CompressHistory(key, 3)
	second := fs.GetHistory(key)

	if len(first) != len(second) {
		t.Fatalf("expected compress(compress(h)) == compress(h), got lengths %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content {
			t.Fatalf("expected stable compression at index %d: %q vs %q", i, first[i].Content, second[i].Content)
		}
	}
}

func TestFileStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	fs1 := NewFileStore(dir)
	fs1.AddMessage("agent:default", providers.Message{Role: "user", Content: "persisted"})
	if err := fs1.Save("agent:default"); err != nil {
		t.Fatal(err)
	}

	fs2 := NewFileStore(dir)
	history := fs2.GetHistory("agent:default")
	if len(history) != 1 || history[0].Content != "persisted" {
		t.Fatalf("expected the persisted message to reload, got %+v", history)
	}
}

func TestFileStore_Delete_RemovesFileAndMemory(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	fs.AddMessage("agent:default", providers.Message{Role: "user", Content: "x"})
	if err := fs.Save("agent:default"); err != nil {
		t.Fatal(err)
	}

	if err := fs.Delete("agent:default"); err != nil {
		t.Fatal(err)
	}
	if len(fs.GetHistory("agent:default")) != 0 {
		t.Fatal("expected history to be empty after delete")
	}

	matches, err := filepath.Glob(filepath.Join(dir, "agent_default.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected the session file to be removed, found %v", matches)
	}
}

func TestFileStore_Reset_ClearsMessagesOnly(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	fs.AddMessage("agent:default", providers.Message{Role: "user", Content: "x"})
	fs.Reset("agent:default")

	if len(fs.GetHistory("agent:default")) != 0 {
		t.Fatal("expected history to be cleared after reset")
	}
}
