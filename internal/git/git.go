package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zackees/codeup/internal/proc"
)

// Runner executes one external command. Satisfied by *proc.Runner;
// tests substitute a scripted implementation.
type Runner interface {
	Run(ctx context.Context, spec proc.Spec) (proc.Result, error)
}

// Client runs git commands in a fixed repository directory.
type Client struct {
	runner Runner
	dir    string
	log    *slog.Logger
}

// NewClient creates a Client rooted at dir. A nil log falls back to
// slog.Default.
func NewClient(runner Runner, dir string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{runner: runner, dir: dir, log: log}
}

// Dir returns the repository directory the client operates on.
func (c *Client) Dir() string { return c.dir }

// run executes a git command, capturing merged output. Quiet commands are
// repository queries whose output would only be console noise.
func (c *Client) run(ctx context.Context, phase string, quiet bool, args ...string) (proc.Result, error) {
	spec := proc.Spec{
		Args:    append([]string{"git"}, args...),
		Dir:     c.dir,
		Phase:   phase,
		Quiet:   quiet,
		Capture: true,
	}
	return c.runner.Run(ctx, spec)
}

// Head resolves the current HEAD commit hash.
func (c *Client) Head(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "QUERY", true, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git rev-parse HEAD exited %d", res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// ObjectExists reports whether ref resolves to an object in the database.
func (c *Client) ObjectExists(ctx context.Context, ref string) (bool, error) {
	res, err := c.run(ctx, "QUERY", true, "cat-file", "-e", ref)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// StatusPorcelain returns the porcelain status output. Empty output means
// the working tree is clean.
func (c *Client) StatusPorcelain(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "STATUS", true, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git status --porcelain exited %d", res.ExitCode)
	}
	return res.Stdout, nil
}

// Status returns the human-readable status output, used to detect a rebase
// or merge left mid-flight.
func (c *Client) Status(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "STATUS", true, "status")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// CurrentBranch returns the checked-out branch name ("" when detached).
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "QUERY", true, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git branch --show-current exited %d", res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// UpstreamBranch returns the configured upstream of the current branch,
// e.g. "origin/feature-xyz", or "" when no upstream tracking exists.
func (c *Client) UpstreamBranch(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "QUERY", true, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(res.Stdout), nil
}

// MainBranch detects the primary branch name. It asks the remote first and
// falls back to probing the common names.
func (c *Client) MainBranch(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "QUERY", true, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err != nil {
		return "", err
	}
	if res.ExitCode == 0 {
		parts := strings.Split(strings.TrimSpace(res.Stdout), "/")
		if name := parts[len(parts)-1]; name != "" {
			return name, nil
		}
	}

	for _, branch := range []string{"main", "master"} {
		res, err := c.run(ctx, "QUERY", true, "rev-parse", "--verify", "origin/"+branch)
		if err != nil {
			return "", err
		}
		if res.ExitCode == 0 {
			return branch, nil
		}
	}
	return "main", nil
}

// ResolveRebaseTarget turns a caller-supplied branch hint into the remote
// ref the rebase should target.
//
// An explicit "origin/"-prefixed hint is used as-is (never doubled). A bare
// hint is prefixed. With no hint, the branch's configured upstream wins;
// only when no upstream tracking exists does the detected primary branch
// apply.
func (c *Client) ResolveRebaseTarget(ctx context.Context, hint string) (string, error) {
	if hint != "" {
		if strings.HasPrefix(hint, "origin/") {
			return hint, nil
		}
		return "origin/" + hint, nil
	}

	upstream, err := c.UpstreamBranch(ctx)
	if err != nil {
		return "", err
	}
	if upstream != "" {
		return upstream, nil
	}

	main, err := c.MainBranch(ctx)
	if err != nil {
		return "", err
	}
	return "origin/" + main, nil
}

// RefHash resolves ref to its commit hash.
func (c *Client) RefHash(ctx context.Context, ref string) (string, error) {
	res, err := c.run(ctx, "QUERY", true, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git rev-parse %s exited %d", ref, res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// MergeBase returns the merge base of HEAD and ref.
func (c *Client) MergeBase(ctx context.Context, ref string) (string, error) {
	res, err := c.run(ctx, "QUERY", true, "merge-base", "HEAD", ref)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git merge-base HEAD %s exited %d", ref, res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// NeedsRebase reports whether HEAD is behind target: true when the merge
// base of the two differs from target's tip.
func (c *Client) NeedsRebase(ctx context.Context, target string) (bool, error) {
	remote, err := c.RefHash(ctx, target)
	if err != nil {
		return false, err
	}
	base, err := c.MergeBase(ctx, target)
	if err != nil {
		return false, err
	}
	return base != remote, nil
}

// Fetch updates remote refs, streaming progress to the console.
func (c *Client) Fetch(ctx context.Context) (proc.Result, error) {
	return c.run(ctx, "FETCH", false, "fetch")
}

// Rebase replays local commits onto target, streaming output.
func (c *Client) Rebase(ctx context.Context, target string) (proc.Result, error) {
	return c.run(ctx, "REBASE", false, "rebase", target)
}

// RebaseAbort aborts an in-progress rebase.
func (c *Client) RebaseAbort(ctx context.Context) (proc.Result, error) {
	return c.run(ctx, "REBASE_ABORT", false, "rebase", "--abort")
}

// ResetHard force-resets the working tree and HEAD to ref.
func (c *Client) ResetHard(ctx context.Context, ref string) (proc.Result, error) {
	return c.run(ctx, "ROLLBACK", false, "reset", "--hard", ref)
}

// Push pushes the current branch. When setUpstream is true the branch has
// no tracking configuration yet and -u establishes it.
func (c *Client) Push(ctx context.Context, setUpstream bool, branch string) (proc.Result, error) {
	if setUpstream && branch != "" {
		return c.run(ctx, "PUSH", false, "push", "-u", "origin", branch)
	}
	return c.run(ctx, "PUSH", false, "push")
}

// FindRepository walks upward from dir looking for a .git directory,
// checking at most three levels. Returns "" when none is found.
func FindRepository(dir string) string {
	current := dir
	for i := 0; i < 3; i++ {
		if info, err := os.Stat(filepath.Join(current, ".git")); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return ""
}
