package connectors

import (
	"os"
	"testing"
)

func TestAcquireLock_Succeeds(t *testing.T) {
	lm := NewLockManagerAt(t.TempDir())
	res, err := lm.AcquireLock("telegram", "/work")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Acquired {
		t.Fatalf("expected acquisition to succeed, got %+v", res)
	}
	locked, err := lm.IsLocked("telegram")
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Fatal("expected telegram to be locked after acquisition")
	}
}

func TestAcquireLock_BlocksWhileOwnerAlive(t *testing.T) {
	dir := t.TempDir()
	a := NewLockManagerAt(dir)
	b := NewLockManagerAt(dir)

	if res, err := a.AcquireLock("telegram", "/work-a"); err != nil || !res.Acquired {
		t.Fatalf("expected a to acquire, got %+v err=%v", res, err)
	}

	res, err := b.AcquireLock("telegram", "/work-b")
	if err != nil {
		t.Fatal(err)
	}
	if res.Acquired {
		t.Fatal("expected b to be blocked while a's pid is alive")
	}
	if res.ExistingPID != os.Getpid() {
		t.Fatalf("expected existing pid to be this test process, got %d", res.ExistingPID)
	}
	if res.ExistingWorkDir != "/work-a" {
		t.Fatalf("expected existing workDir from a, got %q", res.ExistingWorkDir)
	}
}

func TestAcquireLock_ReclaimsStaleLock(t *testing.T) {
	dir := t.TempDir()
	a := NewLockManagerAt(dir)
	if _, err := a.AcquireLock("telegram", "/work"); err != nil {
		t.Fatal(err)
	}
	// Overwrite the lockfile with a pid that (almost certainly) doesn't exist.
	lp, _ := a.lockPath("telegram")
	if err := os.WriteFile(lp, []byte(`{"pid":999999999,"startedAt":"x","workDir":"/dead"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	a.owned["telegram"] = false // simulate a fresh process that doesn't think it owns this lock

	res, err := a.AcquireLock("telegram", "/work-2")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Acquired {
		t.Fatalf("expected stale lock to be reclaimable, got %+v", res)
	}
}

func TestReleaseLock_RemovesLockfile(t *testing.T) {
	dir := t.TempDir()
	lm := NewLockManagerAt(dir)
	if _, err := lm.AcquireLock("discord", "/work"); err != nil {
		t.Fatal(err)
	}
	if err := lm.ReleaseLock("discord"); err != nil {
		t.Fatal(err)
	}
	locked, _ := lm.IsLocked("discord")
	if locked {
		t.Fatal("expected discord to be unlocked after release")
	}
}
