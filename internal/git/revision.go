// Package git reads the checked-out revision of a project.
package git

import (
	"context"
	"os/exec"
	"strings"
)

// Revision identifies the checked-out state of a work tree. Both fields are
// empty outside a git repository or when git is not installed.
type Revision struct {
	Branch string
	Commit string
}

// Describe returns the current branch and short commit of dir.
// A detached HEAD is reported as "detached-<short hash>".
func Describe(ctx context.Context, dir string) Revision {
	commit := run(ctx, dir, "rev-parse", "--short", "HEAD")
	if commit == "" {
		return Revision{}
	}
	branch := run(ctx, dir, "branch", "--show-current")
	if branch == "" {
		branch = "detached-" + commit
	}
	return Revision{Branch: branch, Commit: commit}
}

func run(ctx context.Context, dir string, args ...string) string {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
