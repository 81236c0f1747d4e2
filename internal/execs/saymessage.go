package execs

import (
	"context"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// SayMessageExecutor implements say-message{}: emits its body straight to
// the user-facing track without engaging any other side effect.
type SayMessageExecutor struct{}

func NewSayMessageExecutor() *SayMessageExecutor { return &SayMessageExecutor{} }

func (e *SayMessageExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	message := action.Attrs["message"]
	if message == "" {
		message = action.Body
	}
	return kernel.ToolResult{OK: true, ForUser: message, ForLLM: message}, nil
}

var _ actions.Executor = (*SayMessageExecutor)(nil)
