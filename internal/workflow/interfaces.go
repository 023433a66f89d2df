// Package workflow provides the commit workflow orchestration logic.
package workflow

import "context"

// GitClient abstracts git operations for testability.
type GitClient interface {
	Status(ctx context.Context) error
	StageAll(ctx context.Context) error
	StagedDiff(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string) error
	UnstageAll(ctx context.Context) error
}

// Generator abstracts the remote text-generation call for testability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
