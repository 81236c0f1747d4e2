package execs

import (
	"context"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// GitExecutor implements git{cmd}: a bash-backed executor restricted to the
// git binary, so the forbidden-pattern bash denylist still applies.
type GitExecutor struct {
	bash *BashExecutor
}

func NewGitExecutor(bash *BashExecutor) *GitExecutor {
	return &GitExecutor{bash: bash}
}

func (e *GitExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	cmd := action.Attrs["cmd"]
	if cmd == "" {
		cmd = action.Body
	}
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "git requires a cmd", ""), nil
	}
	if !strings.HasPrefix(cmd, "git ") {
		cmd = "git " + cmd
	}

	return e.bash.Execute(ctx, actions.Action{Tag: "bash", Attrs: map[string]string{"cmd": cmd}})
}

var _ actions.Executor = (*GitExecutor)(nil)
