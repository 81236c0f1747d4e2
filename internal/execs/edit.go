package execs

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// EditExecutor implements edit{path, search, replace, replaceAll?}: finds
// search by exact character match and substitutes replace.
type EditExecutor struct {
	Workspace string
	Restrict  bool
}

func NewEditExecutor(workspace string, restrict bool) *EditExecutor {
	return &EditExecutor{Workspace: workspace, Restrict: restrict}
}

var searchTagRe = regexp.MustCompile(`(?s)<search>(.*?)</search>`)
var replaceTagRe = regexp.MustCompile(`(?s)<replace>(.*?)</replace>`)

// parseSearchReplace extracts the <search>/<replace> sub-tags from an
// edit action's body. These aren't top-level action tags, so the action
// parser leaves them untouched inside Body.
func parseSearchReplace(body string) (search, replace string, ok bool) {
	sm := searchTagRe.FindStringSubmatch(body)
	rm := replaceTagRe.FindStringSubmatch(body)
	if sm == nil || rm == nil {
		return "", "", false
	}
	return sm[1], rm[1], true
}

func (e *EditExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	path := action.Attrs["path"]
	if path == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "edit requires a path attribute", ""), nil
	}

	search, replace, ok := parseSearchReplace(action.Body)
	if !ok || search == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "edit requires a non-empty <search> and a <replace>", ""), nil
	}

	replaceAll, _ := strconv.ParseBool(action.Attrs["replaceAll"])

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

	count := strings.Count(before, search)
	if count == 0 {
		return kernel.ErrResult(kernel.ErrPatternNotFound, fmt.Sprintf("pattern not found in %s", path), ""), nil
	}
	if count > 1 && !replaceAll {
		return kernel.ErrResult(kernel.ErrAmbiguous, fmt.Sprintf("pattern matches %d times in %s; pass replaceAll=\"true\"", count, path), ""), nil
	}

	var after string
	if replaceAll {
		after = strings.ReplaceAll(before, search, replace)
	} else {
		after = strings.Replace(before, search, replace, 1)
	}

	if isDestructiveEdit(before, after) {
		return kernel.ErrResult(kernel.ErrDestructiveRejected,
			fmt.Sprintf("edit deletes more than 80%% of %s; rejected", path), ""), nil
	}

	if err := os.WriteFile(resolved, []byte(after), 0o644); err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  fmt.Sprintf("applied %d replacement(s) in %s", count, path),
		ForUser: fmt.Sprintf("edit %s", path),
		Metadata: map[string]any{
			"event":         "edit:applied",
			"path":          path,
			"beforeContent": before,
			"afterContent":  after,
		},
	}, nil
}

// isDestructiveEdit reports whether after is shorter than before by more
// than 80% of before's length — a diff that deletes the bulk of the file.
func isDestructiveEdit(before, after string) bool {
	if len(before) == 0 {
		return false
	}
	deleted := len(before) - len(after)
	if deleted <= 0 {
		return false
	}
	return float64(deleted)/float64(len(before)) > 0.8
}

var _ actions.Executor = (*EditExecutor)(nil)
