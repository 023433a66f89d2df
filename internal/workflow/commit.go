package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samzong/aicommit/internal/config"
	"github.com/samzong/aicommit/internal/prompt"
	"github.com/samzong/aicommit/internal/ui"
	"go.uber.org/zap"
)

type CommitOptions struct {
	// DryRun prints the generated message instead of committing.
	DryRun bool
	// Prompt renders the prompt; nil means the built-in template.
	Prompt    *prompt.Builder
	OutWriter io.Writer
	ErrWriter io.Writer
}

// CommitFlow stages the working tree, asks the generator for a message and
// hands it to an interactive git commit.
type CommitFlow struct {
	git    GitClient
	llm    Generator
	cfg    *config.Config
	logger *zap.Logger
	opts   CommitOptions
}

func NewCommitFlow(git GitClient, llm Generator, cfg *config.Config, logger *zap.Logger, opts CommitOptions) *CommitFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Prompt == nil {
		opts.Prompt = prompt.Default()
	}
	if opts.OutWriter == nil {
		opts.OutWriter = os.Stdout
	}
	if opts.ErrWriter == nil {
		opts.ErrWriter = os.Stderr
	}
	return &CommitFlow{
		git:    git,
		llm:    llm,
		cfg:    cfg,
		logger: logger,
		opts:   opts,
	}
}

// Run executes the pipeline once. A failed status check and an empty diff
// end the run without error; generation failures are returned and leave
// the index staged.
func (f *CommitFlow) Run(ctx context.Context) error {
	f.logger.Info("Current repo path: " + f.cfg.RepoPath)

	if err := f.git.Status(ctx); err != nil {
		f.logger.Error(err.Error())
		return nil
	}

	diff, err := f.captureDiff(ctx)
	if err != nil {
		return err
	}

	// Nothing was staged, so there is nothing to restore either.
	if strings.TrimSpace(diff) == "" {
		f.logger.Warn("No changes to commit.")
		return nil
	}

	text, err := f.opts.Prompt.Build(diff)
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	message, err := f.generateCommitMessage(ctx, text)
	if err != nil {
		return err
	}

	f.commitAndUnstage(ctx, message)
	return nil
}

func (f *CommitFlow) captureDiff(ctx context.Context) (string, error) {
	if err := f.git.StageAll(ctx); err != nil {
		f.logger.Debug("Staging changes failed", zap.Error(err))
	}

	diff, err := f.git.StagedDiff(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get git diff: %w", err)
	}
	f.logger.Debug("Captured staged diff", zap.Int("bytes", len(diff)))
	return diff, nil
}

func (f *CommitFlow) generateCommitMessage(ctx context.Context, text string) (string, error) {
	f.logger.Debug("Requesting commit message", zap.String("model", f.cfg.Model), zap.String("provider", f.cfg.Provider))

	sp := ui.NewSpinner(f.opts.ErrWriter, "Generating commit message...")
	sp.Start()
	message, err := f.llm.Generate(ctx, text)
	sp.Stop()

	if err != nil {
		return "", fmt.Errorf("failed to generate commit message: %w", err)
	}
	return message, nil
}

// commitAndUnstage always unstages, whatever happened in the editor.
func (f *CommitFlow) commitAndUnstage(ctx context.Context, message string) {
	if f.opts.DryRun {
		fmt.Fprintln(f.opts.ErrWriter, "Dry run mode, no actual commit")
		fmt.Fprintln(f.opts.OutWriter, message)
	} else if err := f.git.Commit(ctx, message); err != nil {
		f.logger.Warn("Commit was not completed", zap.Error(err))
	}

	// An interrupt in the editor cancels ctx; the index must still be restored.
	if err := f.git.UnstageAll(context.WithoutCancel(ctx)); err != nil {
		f.logger.Warn("Failed to unstage files", zap.Error(err))
	}
}
