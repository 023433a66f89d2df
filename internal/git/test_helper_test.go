package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// isolatedEnv keeps test git commands away from the user's configuration and
// from any repository that happens to contain the temp directory.
func isolatedEnv(dir string) []string {
	return []string{
		"GIT_CONFIG_GLOBAL=" + os.DevNull,
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CEILING_DIRECTORIES=" + filepath.Dir(dir),
		"GIT_AUTHOR_NAME=aicommit test",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=aicommit test",
		"GIT_COMMITTER_EMAIL=test@example.com",
		// "true" accepts the pre-filled message unchanged.
		"GIT_EDITOR=true",
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}

// newTestClient returns a client bound to a fresh temporary directory. When
// initRepo is set the directory holds a repository with one commit.
func newTestClient(t *testing.T, initRepo bool) (*Client, string) {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	var out bytes.Buffer
	client := NewClient(Options{Dir: dir, Env: isolatedEnv(dir), Stdin: bytes.NewReader(nil), Stdout: &out, Stderr: &out})

	if initRepo {
		ctx := context.Background()
		mustGit(t, client, ctx, "init", "--quiet")
		writeFile(t, dir, "README.md", "hello\n")
		mustGit(t, client, ctx, "add", "README.md")
		mustGit(t, client, ctx, "commit", "--quiet", "--message", "initial commit")
	}

	return client, dir
}

func mustGit(t *testing.T, client *Client, ctx context.Context, args ...string) string {
	t.Helper()
	result, err := client.runner.Run(ctx, args...)
	if err != nil {
		t.Fatalf("git %v failed: %v: %s", args, err, result.StderrString(true))
	}
	return result.StdoutString(true)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}
