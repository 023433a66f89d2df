package cmd

import (
	"context"
	"fmt"

	"github.com/samzong/aicommit/internal/config"
	"github.com/samzong/aicommit/internal/git"
	"github.com/samzong/aicommit/internal/llm"
	"github.com/samzong/aicommit/internal/logging"
	"github.com/samzong/aicommit/internal/prompt"
	"github.com/samzong/aicommit/internal/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	model   string
	dryRun  bool
	verbose bool

	rootCtx = context.Background()
	rootCmd = &cobra.Command{
		Use:   "aicommit",
		Short: "aicommit - commit messages written by Gemini",
		Long: `aicommit stages every change in the current repository, asks a Gemini model ` +
			`for a commit message describing the staged diff and opens "git commit --edit" ` +
			`with that message. All files are unstaged again afterwards.

The API key is read from the GEMINI_API_KEY environment variable (or a .env file).`,
		Version:       fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		Args:          cobra.NoArgs,
		RunE:          runCommit,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	newGitClient = func(cfg *config.Config, logger *zap.Logger) workflow.GitClient {
		return git.NewClient(git.Options{Dir: cfg.RepoPath, Verbose: verbose, Logger: logger})
	}

	newGenerator = func(cfg *config.Config) (workflow.Generator, error) {
		return llm.New(cfg, llm.Options{})
	}
)

// SetContext sets the context used by Execute.
func SetContext(ctx context.Context) {
	rootCtx = ctx
}

// RootCmd exposes the command tree for documentation generation.
func RootCmd() *cobra.Command {
	return rootCmd
}

func Execute() error {
	return rootCmd.ExecuteContext(rootCtx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is $HOME/.aicommit.yaml)")
	rootCmd.Flags().StringVarP(&model, "model", "m", "", "Model to use (default \""+config.DefaultModel+"\")")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate message only, do not commit")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Log git commands and debug details")
}

func runCommit(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{ConfigFile: cfgFile, Model: model})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	// Nothing may touch git or the network before this check.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	builder, err := prompt.FromFile(cfg.PromptTemplate)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	flow := workflow.NewCommitFlow(newGitClient(cfg, logger), generator, cfg, logger, workflow.CommitOptions{
		DryRun:    dryRun,
		Prompt:    builder,
		OutWriter: outWriter(),
		ErrWriter: errWriter(),
	})
	return flow.Run(cmd.Context())
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := logging.Level(cfg.LogLevel)
	if verbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: logging.Format(cfg.LogFormat),
		Writer: errWriter(),
	})
}
