package execs

import (
	"context"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// FormatExecutor implements format{}: runs the workspace's configured
// formatter command, a thin wrapper over the bash executor.
type FormatExecutor struct {
	bash *BashExecutor
	cmd  string
}

func NewFormatExecutor(bash *BashExecutor, cmd string) *FormatExecutor {
	return &FormatExecutor{bash: bash, cmd: cmd}
}

func (e *FormatExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	if e.cmd == "" {
		return kernel.ErrResult(kernel.ErrNotFound, "no formatter command configured for this workspace", ""), nil
	}
	return e.bash.Execute(ctx, actions.Action{Tag: "bash", Attrs: map[string]string{"cmd": e.cmd}})
}

var _ actions.Executor = (*FormatExecutor)(nil)

// TypecheckExecutor implements typecheck{}: runs the workspace's configured
// typechecker command, a thin wrapper over the bash executor.
type TypecheckExecutor struct {
	bash *BashExecutor
	cmd  string
}

func NewTypecheckExecutor(bash *BashExecutor, cmd string) *TypecheckExecutor {
	return &TypecheckExecutor{bash: bash, cmd: cmd}
}

func (e *TypecheckExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	if e.cmd == "" {
		return kernel.ErrResult(kernel.ErrNotFound, "no typecheck command configured for this workspace", ""), nil
	}
	return e.bash.Execute(ctx, actions.Action{Tag: "bash", Attrs: map[string]string{"cmd": e.cmd}})
}

var _ actions.Executor = (*TypecheckExecutor)(nil)
