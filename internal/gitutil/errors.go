package gitutil

import (
	"fmt"

	"github.com/samzong/aicommit/internal/gitcmd"
)

// WrapGitError builds an error message that prefers git stderr output when present.
func WrapGitError(action string, result gitcmd.Result, err error) error {
	errMsg := result.StderrString(true)
	if errMsg != "" {
		return fmt.Errorf("%s: %s: %w", action, errMsg, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// StderrError treats any stderr output as a failure, even when git exited
// with status zero. It returns nil only for a clean, silent run.
func StderrError(action string, result gitcmd.Result, err error) error {
	if err != nil {
		return WrapGitError(action, result, err)
	}
	if errMsg := result.StderrString(true); errMsg != "" {
		return fmt.Errorf("%s: %s", action, errMsg)
	}
	return nil
}
