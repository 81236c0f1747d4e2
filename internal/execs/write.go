package execs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// WriteExecutor implements write{path, content}: overwrites, creating
// parent directories as needed.
type WriteExecutor struct {
	Workspace string
	Restrict  bool
}

func NewWriteExecutor(workspace string, restrict bool) *WriteExecutor {
	return &WriteExecutor{Workspace: workspace, Restrict: restrict}
}

func (e *WriteExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	path := action.Attrs["path"]
	if path == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "write requires a path attribute", ""), nil
	}

	resolved, err := resolvePath(path, e.Workspace, e.Restrict)
	if err != nil {
		return kernel.ErrResult(kernel.ErrDenied, err.Error(), ""), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	if err := os.WriteFile(resolved, []byte(action.Body), 0o644); err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  fmt.Sprintf("wrote %d bytes to %s", len(action.Body), path),
		ForUser: fmt.Sprintf("write %s", path),
	}, nil
}

var _ actions.Executor = (*WriteExecutor)(nil)
