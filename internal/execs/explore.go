package execs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/contextpipeline"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// ExploreExecutor backs grep/glob/ls: exploration tools whose output is
// fed into the per-tab explore aggregator instead of rendered individually.
type ExploreExecutor struct {
	Workspace string
	Restrict  bool
	Aggregator *contextpipeline.ExploreAggregator
	TabID      string
}

func NewExploreExecutor(workspace string, restrict bool, agg *contextpipeline.ExploreAggregator) *ExploreExecutor {
	return &ExploreExecutor{Workspace: workspace, Restrict: restrict, Aggregator: agg}
}

func (e *ExploreExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	var out string
	var err error

	switch action.Tag {
	case "grep":
		out, err = e.grep(ctx, action)
	case "glob":
		out, err = e.glob(action)
	case "ls":
		out, err = e.ls(action)
	default:
		return kernel.ErrResult(kernel.ErrUnknown, fmt.Sprintf("explore executor does not handle <%s>", action.Tag), ""), nil
	}
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	if e.Aggregator != nil {
		for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
			if line == "" {
				continue
			}
			e.Aggregator.Enqueue(e.TabID, contextpipeline.ExploreEvent{Tool: action.Tag, Line: line})
		}
	}

	return kernel.ToolResult{OK: true, ForLLM: out, ForUser: fmt.Sprintf("%s %s", action.Tag, action.Attrs["pattern"])}, nil
}

func (e *ExploreExecutor) grep(ctx context.Context, action actions.Action) (string, error) {
	pattern := action.Attrs["pattern"]
	if pattern == "" {
		return "", fmt.Errorf("grep requires a pattern attribute")
	}
	path := action.Attrs["path"]
	if path == "" {
		path = "."
	}
	resolved, err := resolvePath(path, e.Workspace, e.Restrict)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "grep", "-rn", "--", pattern, resolved)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	_ = cmd.Run() // grep exits non-zero on no matches; that's not an error here
	return stdout.String(), nil
}

func (e *ExploreExecutor) glob(action actions.Action) (string, error) {
	pattern := action.Attrs["pattern"]
	if pattern == "" {
		return "", fmt.Errorf("glob requires a pattern attribute")
	}
	full := filepath.Join(e.Workspace, pattern)
	matches, err := filepath.Glob(full)
	if err != nil {
		return "", err
	}
	return strings.Join(matches, "\n"), nil
}

func (e *ExploreExecutor) ls(action actions.Action) (string, error) {
	path := action.Attrs["path"]
	if path == "" {
		path = "."
	}
	resolved, err := resolvePath(path, e.Workspace, e.Restrict)
	if err != nil {
		return "", err
	}
	entries, err := filepath.Glob(filepath.Join(resolved, "*"))
	if err != nil {
		return "", err
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = filepath.Base(entry)
	}
	return strings.Join(names, "\n"), nil
}

var _ actions.Executor = (*ExploreExecutor)(nil)
