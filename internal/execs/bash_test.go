package execs

import (
	"context"
	"testing"
	"time"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

func TestBashExecutor_RunsCommandAndCapturesOutput(t *testing.T) {
	e := NewBashExecutor(t.TempDir())
	res, err := e.Execute(context.Background(), actions.Action{Tag: "bash", Attrs: map[string]string{"cmd": "echo hi"}})
	if err != nil || !res.OK {
		t.Fatalf("expected success, got %+v err=%v", res, err)
	}
	if res.ForLLM != "hi\n" {
		t.Fatalf("unexpected output: %q", res.ForLLM)
	}
}

func TestBashExecutor_RejectsForbiddenPattern(t *testing.T) {
	e := NewBashExecutor(t.TempDir())
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "bash", Attrs: map[string]string{"cmd": "git push --force origin main"}})
	if res.OK || res.Error.Code != kernel.ErrForbidden {
		t.Fatalf("expected FORBIDDEN, got %+v", res)
	}
}

func TestBashExecutor_TimesOut(t *testing.T) {
	e := NewBashExecutor(t.TempDir())
	action := actions.Action{Tag: "bash", Attrs: map[string]string{"cmd": "sleep 5", "timeoutMs": "50"}}
	res, _ := e.Execute(context.Background(), action)
	if res.OK || res.Error.Code != kernel.ErrTimeout {
		t.Fatalf("expected TIMEOUT, got %+v", res)
	}
}

func TestBashExecutor_BackgroundJobTrackedAndKillable(t *testing.T) {
	e := NewBashExecutor(t.TempDir())
	action := actions.Action{Tag: "bash", Attrs: map[string]string{"cmd": "sleep 30", "background": "true"}}
	res, err := e.Execute(context.Background(), action)
	if err != nil || !res.OK {
		t.Fatalf("expected background start to succeed, got %+v err=%v", res, err)
	}

	jobs := e.List()
	if len(jobs) != 1 {
		t.Fatalf("expected one tracked job, got %d", len(jobs))
	}

	if err := e.Kill(jobs[0].ID); err != nil {
		t.Fatalf("expected kill to succeed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		jobs = e.List()
		if jobs[0].Done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected killed job to be marked done")
		default:
		}
	}
}
