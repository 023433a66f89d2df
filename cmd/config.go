package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samzong/aicommit/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage aicommit configuration",
		Long: `Manage aicommit configuration stored in $HOME/.aicommit.yaml (or --config).

Environment variables take precedence over the file: GEMINI_API_KEY for the
API key and AICOMMIT_<KEY> for every other setting.`,
	}

	configGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.Options{ConfigFile: cfgFile})
			if err != nil {
				return err
			}
			printConfig(cfg)
			return nil
		},
	}

	configSetCmd = &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Set a configuration value",
		Long: "Set a configuration value. Valid keys: " + strings.Join(config.Keys(), ", ") +
			". Valid providers: " + strings.Join(config.Providers(), ", ") + `.

When the key is api_key and no value is given, the key is read from the
terminal without echo.`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: config.Keys(),
		RunE: func(_ *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsValidKey(key) {
				return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(config.Keys(), ", "))
			}

			var value string
			switch {
			case len(args) == 2:
				value = args[1]
			case key == "api_key":
				secret, err := readSecret("Enter API key: ")
				if err != nil {
					return err
				}
				value = secret
			default:
				return fmt.Errorf("missing value for %s", key)
			}

			if err := config.SetValue(cfgFile, key, value); err != nil {
				return err
			}
			if key == "api_key" {
				fmt.Fprintln(outWriter(), "API key saved")
			} else {
				fmt.Fprintf(outWriter(), "%s set to %s\n", key, value)
			}
			return nil
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := config.FilePath(cfgFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(outWriter(), path)
			return nil
		},
	}

	readSecret = func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("stdin is not a terminal, pass the API key as an argument")
		}
		fmt.Fprint(errWriter(), prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(errWriter())
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		value := strings.TrimSpace(string(secret))
		if value == "" {
			return "", errors.New("API key must not be empty")
		}
		return value, nil
	}
)

func printConfig(cfg *config.Config) {
	out := outWriter()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "api_key: %s\n", cfg.MaskedAPIKey())
	fmt.Fprintf(out, "model: %s\n", cfg.Model)
	fmt.Fprintf(out, "base_url: %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "provider: %s\n", cfg.Provider)
	if cfg.Timeout > 0 {
		fmt.Fprintf(out, "timeout: %s\n", cfg.Timeout)
	} else {
		fmt.Fprintln(out, "timeout: <none>")
	}
	if cfg.PromptTemplate != "" {
		fmt.Fprintf(out, "prompt_template: %s\n", cfg.PromptTemplate)
	} else {
		fmt.Fprintln(out, "prompt_template: <built-in>")
	}
	fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}
