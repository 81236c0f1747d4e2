package execs

import (
	"context"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// EndTaskExecutor implements end-task{message}: a non-executing sentinel
// that terminates the enclosing turn. The turn loop dispatches it like any
// other action, ends the turn when it sees this tag, and uses this result's
// ForLLM text (the message) as the turn's end message.
type EndTaskExecutor struct{}

func NewEndTaskExecutor() *EndTaskExecutor { return &EndTaskExecutor{} }

func (e *EndTaskExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	message := action.Attrs["message"]
	if message == "" {
		message = action.Body
	}
	return kernel.ToolResult{OK: true, Silent: true, ForLLM: message}, nil
}

var _ actions.Executor = (*EndTaskExecutor)(nil)

// ContinueTaskExecutor implements continue-task{}: a non-executing
// sentinel signalling the turn loop that more steps follow.
type ContinueTaskExecutor struct{}

func NewContinueTaskExecutor() *ContinueTaskExecutor { return &ContinueTaskExecutor{} }

func (e *ContinueTaskExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	return kernel.ToolResult{OK: true, Silent: true}, nil
}

var _ actions.Executor = (*ContinueTaskExecutor)(nil)
