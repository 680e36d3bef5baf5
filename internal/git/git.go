package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status holds the git hygiene of the store files
type Status struct {
	IsRepo    bool
	Tracked   []string // committed or staged; should be removed from the index
	Ignored   []string
	Unignored []string
}

// IsGitRepo checks if workDir is inside a git work tree
func IsGitRepo(ctx context.Context, workDir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(ctx context.Context, workDir, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a path is ignored by any .gitignore. The file does
// not need to exist.
func IsIgnored(ctx context.Context, workDir, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "check-ignore", "-q", "--no-index", "--", path)
	cmd.Dir = workDir
	// exit code 0 means ignored
	return cmd.Run() == nil
}

// Check inspects the given store files. Paths are resolved relative to the
// directory of the first one.
func Check(ctx context.Context, paths ...string) (*Status, error) {
	status := &Status{}
	if len(paths) == 0 {
		return status, nil
	}

	abs, err := filepath.Abs(paths[0])
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", paths[0], err)
	}
	workDir := filepath.Dir(abs)

	if !IsGitRepo(ctx, workDir) {
		return status, nil
	}
	status.IsRepo = true

	for _, p := range paths {
		name, err := relative(workDir, p)
		if err != nil {
			return nil, err
		}
		if IsTracked(ctx, workDir, name) {
			status.Tracked = append(status.Tracked, name)
		}
		if IsIgnored(ctx, workDir, name) {
			status.Ignored = append(status.Ignored, name)
		} else {
			status.Unignored = append(status.Unignored, name)
		}
	}
	return status, nil
}

func relative(workDir, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(workDir, abs)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s: %w", path, err)
	}
	return rel, nil
}

// Format renders status for display. Outside a repository it is empty.
func Format(status *Status) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit:\n")

	if len(status.Tracked) > 0 {
		fmt.Fprintf(&result, "   error: %d store file(s) tracked by git:\n", len(status.Tracked))
		for _, file := range status.Tracked {
			fmt.Fprintf(&result, "      - %s (run: git rm --cached %s)\n", file, file)
		}
	} else {
		result.WriteString("   ok: store not tracked by git\n")
	}

	if len(status.Unignored) > 0 {
		for _, file := range status.Unignored {
			fmt.Fprintf(&result, "   warning: %s not in .gitignore\n", file)
		}
	} else if len(status.Ignored) > 0 {
		fmt.Fprintf(&result, "   ok: %d store file(s) in .gitignore\n", len(status.Ignored))
	}

	return result.String()
}
