package execs

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// SkillExecutor implements skill{name}: reads a named skill file (a plain
// markdown prompt fragment) from the skills directory and returns its
// content so the turn loop can fold it into context.
type SkillExecutor struct {
	dir string
}

func NewSkillExecutor(dir string) *SkillExecutor {
	return &SkillExecutor{dir: dir}
}

func (e *SkillExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	name := action.Attrs["name"]
	if name == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "skill requires a name attribute", ""), nil
	}
	if strings.ContainsAny(name, `/\`) {
		return kernel.ErrResult(kernel.ErrDenied, "skill name must not contain path separators", ""), nil
	}

	path := filepath.Join(e.dir, name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return kernel.ErrResult(kernel.ErrNotFound, fmt.Sprintf("no such skill: %s", name), ""), nil
		}
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	return kernel.ToolResult{OK: true, ForLLM: string(data), ForUser: fmt.Sprintf("skill %s", name)}, nil
}

var _ actions.Executor = (*SkillExecutor)(nil)

// SkillInstallExecutor implements skill-install{name, source}: downloads a
// skill file from source and saves it under the skills directory.
type SkillInstallExecutor struct {
	dir    string
	client *http.Client
}

func NewSkillInstallExecutor(dir string) *SkillInstallExecutor {
	return &SkillInstallExecutor{dir: dir, client: http.DefaultClient}
}

func (e *SkillInstallExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	name := action.Attrs["name"]
	source := action.Attrs["source"]
	if name == "" || source == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "skill-install requires name and source attributes", ""), nil
	}
	if strings.ContainsAny(name, `/\`) {
		return kernel.ErrResult(kernel.ErrDenied, "skill name must not contain path separators", ""), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	out, err := os.Create(filepath.Join(e.dir, name+".md"))
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	defer out.Close()
	if _, err := out.ReadFrom(resp.Body); err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	return kernel.ToolResult{OK: true, ForLLM: fmt.Sprintf("installed skill %s", name), ForUser: fmt.Sprintf("skill-install %s", name)}, nil
}

var _ actions.Executor = (*SkillInstallExecutor)(nil)
