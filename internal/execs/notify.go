package execs

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// NotifyFunc routes a notification to whatever display facade the caller
// bound. Injected as a callback so this package never depends on display.
type NotifyFunc func(ctx context.Context, message string) error

// NotifyExecutor implements notify{message}.
type NotifyExecutor struct {
	notify NotifyFunc
}

func NewNotifyExecutor(notify NotifyFunc) *NotifyExecutor {
	return &NotifyExecutor{notify: notify}
}

func (e *NotifyExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	message := action.Attrs["message"]
	if message == "" {
		message = action.Body
	}
	if message == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "notify requires a message", ""), nil
	}

	if e.notify != nil {
		if err := e.notify(ctx, message); err != nil {
			return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
		}
	}

	return kernel.ToolResult{OK: true, Silent: true, ForLLM: fmt.Sprintf("notified: %s", message)}, nil
}

var _ actions.Executor = (*NotifyExecutor)(nil)
