package scheduler

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RegisterAndFireShellTask(t *testing.T) {
	var calls int32
	shell := func(ctx context.Context, cmd string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	}
	s := New(filepath.Join(t.TempDir(), "tasks.json"), shell, nil)

	if err := s.Register(&Task{ID: "t1", Cron: "* * * * *", Name: "every-minute", Body: "echo hi", BodyKind: BodyShell}); err != nil {
		t.Fatal(err)
	}

	// Drive a single tick directly rather than waiting on the real clock:
	// a wildcard cron expression is due at any instant, so fireDue fires it
	// immediately without needing to cross a minute boundary.
	ctx := context.Background()
	s.fireDue(ctx)

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected the shell task to fire at least once")
		default:
		}
	}
}

func TestScheduler_RejectsInvalidCron(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "tasks.json"), nil, nil)
	err := s.Register(&Task{ID: "bad", Cron: "not a cron expr", BodyKind: BodyShell})
	if err == nil {
		t.Fatal("expected an error for an invalid cron expression")
	}
}

func TestScheduler_PersistsAndLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s1 := New(path, nil, nil)
	if err := s1.Register(&Task{ID: "t1", Cron: "0 0 * * *", Name: "daily", Body: "x", BodyKind: BodyShell}); err != nil {
		t.Fatal(err)
	}

	s2 := New(path, nil, nil)
	if err := s2.Load(); err != nil {
		t.Fatal(err)
	}
	list := s2.List()
	if len(list) != 1 || list[0].ID != "t1" {
		t.Fatalf("expected the persisted task to reload, got %+v", list)
	}
}

func TestScheduler_RemoveDeletesTask(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "tasks.json"), nil, nil)
	if err := s.Register(&Task{ID: "t1", Cron: "0 0 * * *", BodyKind: BodyShell}); err != nil {
		t.Fatal(err)
	}
	s.Remove("t1")
	if len(s.List()) != 0 {
		t.Fatal("expected task list to be empty after removal")
	}
}
