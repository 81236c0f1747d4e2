package execs

import (
	"context"
	"errors"
	"testing"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

func TestGitExecutor_PrefixesGitIfMissing(t *testing.T) {
	bash := NewBashExecutor(t.TempDir())
	e := NewGitExecutor(bash)
	res, err := e.Execute(context.Background(), actions.Action{Tag: "git", Attrs: map[string]string{"cmd": "--version"}})
	if err != nil || !res.OK {
		t.Fatalf("expected git --version to succeed, got %+v err=%v", res, err)
	}
}

func TestGitExecutor_StillDeniesForbiddenGitCommand(t *testing.T) {
	bash := NewBashExecutor(t.TempDir())
	e := NewGitExecutor(bash)
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "git", Attrs: map[string]string{"cmd": "reset --hard HEAD~1"}})
	if res.OK || res.Error.Code != kernel.ErrForbidden {
		t.Fatalf("expected FORBIDDEN, got %+v", res)
	}
}

func TestEndTaskExecutor_CarriesMessage(t *testing.T) {
	e := NewEndTaskExecutor()
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "end-task", Attrs: map[string]string{"message": "done"}})
	if !res.OK || res.ForLLM != "done" || !res.Silent {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSayMessageExecutor_EmitsBothTracks(t *testing.T) {
	e := NewSayMessageExecutor()
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "say-message", Body: "hello there"})
	if res.ForUser != "hello there" || res.ForLLM != "hello there" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAgentSendExecutor_MissingEndTaskErrors(t *testing.T) {
	e := NewAgentSendExecutor(func(ctx context.Context, to, title, body string) (AgentSendResult, error) {
		return AgentSendResult{FinalMessage: "partial work", EndTaskSeen: false}, nil
	})
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "agent-send", Attrs: map[string]string{"to": "Worker", "title": "t"}, Body: "do X"})
	if res.OK || res.Error.Code != kernel.ErrMissingEndTask {
		t.Fatalf("expected MISSING_END_TASK, got %+v", res)
	}
}

func TestAgentSendExecutor_TruncatesSummary(t *testing.T) {
	long := make([]byte, agentSendMaxSummaryChars+500)
	for i := range long {
		long[i] = 'a'
	}
	e := NewAgentSendExecutor(func(ctx context.Context, to, title, body string) (AgentSendResult, error) {
		return AgentSendResult{FinalMessage: string(long), EndTaskSeen: true}, nil
	})
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "agent-send", Attrs: map[string]string{"to": "Worker"}})
	if !res.OK || len(res.ForLLM) != agentSendMaxSummaryChars {
		t.Fatalf("expected summary truncated to %d chars, got %d", agentSendMaxSummaryChars, len(res.ForLLM))
	}
}

func TestAgentSendExecutor_PropagatesSendError(t *testing.T) {
	e := NewAgentSendExecutor(func(ctx context.Context, to, title, body string) (AgentSendResult, error) {
		return AgentSendResult{}, errors.New("target agent not found")
	})
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "agent-send", Attrs: map[string]string{"to": "Nope"}})
	if res.OK {
		t.Fatal("expected failure to propagate")
	}
}

func TestNotifyExecutor_InvokesCallback(t *testing.T) {
	var got string
	e := NewNotifyExecutor(func(ctx context.Context, message string) error {
		got = message
		return nil
	})
	res, _ := e.Execute(context.Background(), actions.Action{Tag: "notify", Attrs: map[string]string{"message": "build failed"}})
	if !res.OK || got != "build failed" {
		t.Fatalf("expected callback invoked with message, got %+v got=%q", res, got)
	}
}
