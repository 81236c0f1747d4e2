package execs

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// ReadExecutor implements read{path, offset?, limit?}: returns file content
// sliced to [offset, offset+limit) lines.
type ReadExecutor struct {
	Workspace string
	Restrict  bool

	// perTurn counts reads by path within the current turn. The turn loop
	// runs actions sequentially, so no locking is needed here.
	perTurn map[string]int
}

// NewReadExecutor builds a read executor rooted at workspace.
func NewReadExecutor(workspace string, restrict bool) *ReadExecutor {
	return &ReadExecutor{Workspace: workspace, Restrict: restrict, perTurn: make(map[string]int)}
}

// ResetTurn clears the per-turn duplicate-read counters; a new user turn
// clears prior read history the same way it clears explore events.
func (e *ReadExecutor) ResetTurn() {
	e.perTurn = make(map[string]int)
}

// DuplicateCount reports how many times Execute has been called for path
// this turn. The turn loop does not consult it: it counts repeat reads in
// its own map, which also sees the repeats it drops without executing.
func (e *ReadExecutor) DuplicateCount(path string) int {
	return e.perTurn[path]
}

func (e *ReadExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	path := action.Attrs["path"]
	if path == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "read requires a path attribute", ""), nil
	}

	e.perTurn[path]++

	resolved, err := resolvePath(path, e.Workspace, e.Restrict)
	if err != nil {
		return kernel.ErrResult(kernel.ErrDenied, err.Error(), ""), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return kernel.ErrResult(kernel.ErrNotFound, fmt.Sprintf("file not found: %s", path), ""), nil
		}
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	content := string(data)
	if off, ok := action.Attrs["offset"]; ok {
		content = sliceLines(content, off, action.Attrs["limit"])
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  content,
		ForUser: fmt.Sprintf("read %s", path),
	}, nil
}

// sliceLines applies an offset/limit line window, both 0-based and optional.
func sliceLines(content, offsetStr, limitStr string) string {
	lines := strings.Split(content, "\n")
	offset, _ := strconv.Atoi(offsetStr)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		return ""
	}
	end := len(lines)
	if limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && offset+limit < end {
			end = offset + limit
		}
	}
	return strings.Join(lines[offset:end], "\n")
}

var _ actions.Executor = (*ReadExecutor)(nil)
