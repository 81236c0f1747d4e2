// Package execs implements the action tag executors: read, write, edit,
// multi-edit, bash, grep/glob/ls, fetch/search, format/typecheck, schedule,
// notify, skill(-install), agent-send, end-task/continue-task/say-message,
// and the connector config tags.
package execs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// resolvePath resolves path relative to workspace and, when restrict is
// true, rejects anything that canonicalizes outside the workspace boundary
// (symlink/hardlink escapes included).
func resolvePath(path, workspace string, restrict bool) (string, error) {
	var resolved string
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
	} else {
		resolved = filepath.Clean(filepath.Join(workspace, path))
	}

	if !restrict {
		return resolved, nil
	}

	absWorkspace, _ := filepath.Abs(workspace)
	wsReal, err := filepath.EvalSymlinks(absWorkspace)
	if err != nil {
		wsReal = absWorkspace
	}

	absResolved, _ := filepath.Abs(resolved)
	real, err := filepath.EvalSymlinks(absResolved)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("execs: path resolve failed", "path", path, "error", err)
			return "", fmt.Errorf("access denied: cannot resolve path")
		}
		if linfo, lerr := os.Lstat(absResolved); lerr == nil && linfo.Mode()&os.ModeSymlink != 0 {
			target, readErr := os.Readlink(absResolved)
			if readErr != nil {
				return "", fmt.Errorf("access denied: cannot resolve symlink")
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(absResolved), target)
			}
			resolvedTarget, resolveErr := resolveThroughExistingAncestors(filepath.Clean(target))
			if resolveErr != nil {
				slog.Warn("execs: broken symlink resolve failed", "path", path, "target", target)
				return "", fmt.Errorf("access denied: cannot resolve broken symlink target")
			}
			if !isPathInside(resolvedTarget, wsReal) {
				slog.Warn("execs: broken symlink escape", "path", path, "target", resolvedTarget)
				return "", fmt.Errorf("access denied: broken symlink target outside workspace")
			}
			real = resolvedTarget
		} else {
			parentReal, parentErr := filepath.EvalSymlinks(filepath.Dir(absResolved))
			if parentErr != nil {
				return "", fmt.Errorf("access denied: cannot resolve path")
			}
			real = filepath.Join(parentReal, filepath.Base(absResolved))
		}
	}

	if !isPathInside(real, wsReal) {
		slog.Warn("execs: path escape", "path", path, "resolved", real, "workspace", wsReal)
		return "", fmt.Errorf("access denied: path outside workspace")
	}
	if hasMutableSymlinkParent(real) {
		slog.Warn("execs: mutable symlink parent", "path", path, "resolved", real)
		return "", fmt.Errorf("access denied: path contains mutable symlink component")
	}
	if err := checkHardlink(real); err != nil {
		return "", err
	}
	return real, nil
}

func isPathInside(child, parent string) bool {
	if child == parent {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}

func resolveThroughExistingAncestors(target string) (string, error) {
	if real, err := filepath.EvalSymlinks(target); err == nil {
		return real, nil
	}
	current := target
	var tail []string
	for {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
		if realParent, err := filepath.EvalSymlinks(current); err == nil {
			result := realParent
			for _, component := range tail {
				result = filepath.Join(result, component)
			}
			return result, nil
		}
	}
	return filepath.Clean(target), nil
}

func hasMutableSymlinkParent(path string) bool {
	clean := filepath.Clean(path)
	components := strings.Split(clean, string(filepath.Separator))
	current := string(filepath.Separator)
	for _, comp := range components {
		if comp == "" {
			continue
		}
		current = filepath.Join(current, comp)
		info, err := os.Lstat(current)
		if err != nil {
			break
		}
		if info.Mode()&os.ModeSymlink != 0 {
			parentDir := filepath.Dir(current)
			if syscall.Access(parentDir, 0x2) == nil {
				return true
			}
		}
	}
	return false
}

func checkHardlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return nil
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if stat.Nlink > 1 {
			slog.Warn("execs: hardlink rejected", "path", path, "nlink", stat.Nlink)
			return fmt.Errorf("access denied: hardlinked file not allowed")
		}
	}
	return nil
}
