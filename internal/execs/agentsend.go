package execs

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

const agentSendMaxSummaryChars = 2000

// AgentSendResult is what a delegated turn reports back.
type AgentSendResult struct {
	FinalMessage string
	EndTaskSeen  bool
}

// AgentSendFunc runs a delegated turn on the target agent and reports its
// outcome. Injected as a callback so this package never depends on agent
// (which would otherwise import execs to register this very executor).
type AgentSendFunc func(ctx context.Context, to, title, body string) (AgentSendResult, error)

// AgentSendExecutor implements agent-send{to, title}body</agent-send>.
type AgentSendExecutor struct {
	send AgentSendFunc
}

func NewAgentSendExecutor(send AgentSendFunc) *AgentSendExecutor {
	return &AgentSendExecutor{send: send}
}

func (e *AgentSendExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	to := action.Attrs["to"]
	if to == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "agent-send requires a to attribute", ""), nil
	}
	title := action.Attrs["title"]

	result, err := e.send(ctx, to, title, action.Body)
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	if !result.EndTaskSeen {
		return kernel.ErrResult(kernel.ErrMissingEndTask,
			fmt.Sprintf("agent %q completed without an end-task action", to), ""), nil
	}

	summary := result.FinalMessage
	if len(summary) > agentSendMaxSummaryChars {
		summary = summary[:agentSendMaxSummaryChars]
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  summary,
		ForUser: fmt.Sprintf("agent-send to %s: %s", to, title),
	}, nil
}

var _ actions.Executor = (*AgentSendExecutor)(nil)
