package execs

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// MultiEditExecutor implements multi-edit{path, edits[]}: computes every
// edit against one in-memory copy of the file and persists only if all
// of them succeed.
type MultiEditExecutor struct {
	Workspace string
	Restrict  bool
}

func NewMultiEditExecutor(workspace string, restrict bool) *MultiEditExecutor {
	return &MultiEditExecutor{Workspace: workspace, Restrict: restrict}
}

var editBlockRe = regexp.MustCompile(`(?s)<edit>(.*?)</edit>`)

func (e *MultiEditExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	path := action.Attrs["path"]
	if path == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "multi-edit requires a path attribute", ""), nil
	}

	blocks := editBlockRe.FindAllStringSubmatch(action.Body, -1)
	if len(blocks) == 0 {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "multi-edit requires at least one <edit> block", ""), nil
	}

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
	before := string(data)
	working := before

	applied := 0
	for _, block := range blocks {
		search, replace, ok := parseSearchReplace(block[1])
		if !ok || search == "" {
			return kernel.ErrResult(kernel.ErrPatternNotFound, "each <edit> requires a non-empty <search> and a <replace>", ""), nil
		}
		if !strings.Contains(working, search) {
			return kernel.ErrResult(kernel.ErrPatternNotFound, fmt.Sprintf("pattern not found in %s (edit %d of %d)", path, applied+1, len(blocks)), ""), nil
		}
		working = strings.Replace(working, search, replace, 1)
		applied++
	}

	if isDestructiveEdit(before, working) {
		return kernel.ErrResult(kernel.ErrDestructiveRejected,
			fmt.Sprintf("multi-edit deletes more than 80%% of %s; rejected", path), ""), nil
	}

	if err := os.WriteFile(resolved, []byte(working), 0o644); err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  fmt.Sprintf("applied %d edit(s) to %s", applied, path),
		ForUser: fmt.Sprintf("multi-edit %s", path),
		Metadata: map[string]any{
			"event":         "edit:applied",
			"path":          path,
			"beforeContent": before,
			"afterContent":  working,
		},
	}, nil
}

var _ actions.Executor = (*MultiEditExecutor)(nil)
