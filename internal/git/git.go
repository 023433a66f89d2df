// Package git implements the version-control side of the commit pipeline by
// shelling out to the git executable.
package git

import (
	"context"
	"fmt"
	"io"

	"github.com/samzong/aicommit/internal/gitcmd"
	"github.com/samzong/aicommit/internal/gitutil"
	"go.uber.org/zap"
)

// Options configures a Client.
type Options struct {
	// Dir is the repository root. Empty means the process working directory.
	Dir     string
	Verbose bool
	Logger  *zap.Logger
	// Env is appended to the process environment of every git command.
	Env []string

	// Stdin, Stdout and Stderr are attached to "git commit" so the editor
	// can use the terminal. Nil means the process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Client runs git commands against a single working tree.
type Client struct {
	runner gitcmd.Runner
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func NewClient(opts Options) *Client {
	return &Client{
		runner: gitcmd.Runner{
			Verbose: opts.Verbose,
			Dir:     opts.Dir,
			Env:     opts.Env,
			Logger:  opts.Logger,
		},
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
	}
}

// Status runs "git status". Any stderr output counts as a failure, which
// covers "not a git repository" as well as unreadable checkouts.
func (c *Client) Status(ctx context.Context) error {
	result, err := c.runner.Run(ctx, "status")
	return gitutil.StderrError("git status failed", result, err)
}

// StageAll runs "git add .".
func (c *Client) StageAll(ctx context.Context) error {
	result, err := c.runner.Run(ctx, "add", ".")
	if err != nil {
		return gitutil.WrapGitError("git add failed", result, err)
	}
	return nil
}

// StagedDiff returns the output of "git diff --cached".
func (c *Client) StagedDiff(ctx context.Context) (string, error) {
	result, err := c.runner.Run(ctx, "diff", "--cached")
	if err != nil {
		return "", gitutil.WrapGitError("git diff --cached failed", result, err)
	}
	return result.StdoutString(false), nil
}

// Commit runs "git commit --edit --message <message>" attached to the
// terminal so the user can review the message in their editor.
func (c *Client) Commit(ctx context.Context, message string) error {
	if err := c.runner.RunAttached(ctx, c.stdin, c.stdout, c.stderr, "commit", "--edit", "--message", message); err != nil {
		return fmt.Errorf("git commit failed: %w", err)
	}
	return nil
}

// UnstageAll runs "git restore --staged .".
func (c *Client) UnstageAll(ctx context.Context) error {
	result, err := c.runner.Run(ctx, "restore", "--staged", ".")
	if err != nil {
		return gitutil.WrapGitError("git restore --staged failed", result, err)
	}
	return nil
}
