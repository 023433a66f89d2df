package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything a single aicommit run needs.
type Config struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	Provider       string        `mapstructure:"provider"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PromptTemplate string        `mapstructure:"prompt_template"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`

	// RepoPath is the working directory captured at startup.
	RepoPath string `mapstructure:"-"`
}

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/models/"
	DefaultProvider    = ProviderGemini
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultConfigName  = ".aicommit"
	DefaultDotEnvName  = ".env"
	EnvPrefix          = "AICOMMIT"
	APIKeyEnv          = "GEMINI_API_KEY"
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	maskedSecretSuffix = "****"
)

// ErrMissingAPIKey is returned by Validate when no API key was configured.
var ErrMissingAPIKey = errors.New(APIKeyEnv + " environment variable is not set")

var providers = []string{ProviderGemini, ProviderOpenAI}

// keys lists every setting accepted in the config file, in display order.
var keys = []string{
	"api_key",
	"model",
	"base_url",
	"provider",
	"timeout",
	"prompt_template",
	"log_level",
	"log_format",
}

var defaults = map[string]any{
	"api_key":         "",
	"model":           DefaultModel,
	"base_url":        DefaultBaseURL,
	"provider":        DefaultProvider,
	"timeout":         time.Duration(0),
	"prompt_template": "",
	"log_level":       DefaultLogLevel,
	"log_format":      DefaultLogFormat,
}

// Options controls where configuration is read from.
type Options struct {
	// ConfigFile overrides the default $HOME/.aicommit.yaml lookup.
	ConfigFile string
	// WorkDir is the repository root; defaults to the process working directory.
	WorkDir string
	// Model, when set, takes precedence over every other model source.
	Model string
}

// Load builds a Config from, in increasing precedence: built-in defaults,
// a .env file in the working directory, the config file, the environment
// and explicit overrides.
func Load(opts Options) (*Config, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}

	v := viper.New()
	for _, key := range keys {
		v.SetDefault(key, defaults[key])
	}

	dotenv, err := readDotEnv(filepath.Join(workDir, DefaultDotEnvName))
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		for _, name := range envNames(key) {
			if value, ok := dotenv[name]; ok && value != "" {
				v.SetDefault(key, value)
				break
			}
		}
	}

	if err := configureFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(append([]string{"api_key"}, envNames("api_key")...)...); err != nil {
		return nil, fmt.Errorf("failed to bind api key environment: %w", err)
	}

	if opts.Model != "" {
		v.Set("model", opts.Model)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.RepoPath = workDir

	return cfg, nil
}

// Validate reports configuration problems that make a run impossible.
// It must succeed before any git command or network call is made.
func (c *Config) Validate() error {
	if c == nil || c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if !slices.Contains(providers, c.Provider) {
		return fmt.Errorf("unsupported provider %q (supported: %s)", c.Provider, strings.Join(providers, ", "))
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	return nil
}

// MaskedAPIKey returns the key with everything but its first four
// characters hidden.
func (c *Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "<not set>"
	}
	if len(c.APIKey) <= 4 {
		return maskedSecretSuffix
	}
	return c.APIKey[:4] + maskedSecretSuffix
}

// Keys returns the settings that may appear in the config file.
func Keys() []string {
	return slices.Clone(keys)
}

// IsValidKey reports whether key is a known setting.
func IsValidKey(key string) bool {
	return slices.Contains(keys, key)
}

// Providers returns the supported generator backends.
func Providers() []string {
	return slices.Clone(providers)
}

// FilePath resolves the config file that Load and SetValue use.
func FilePath(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigName+".yaml"), nil
}

// SetValue persists a single setting to the config file, creating it when
// missing.
func SetValue(cfgFile, key, value string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(keys, ", "))
	}
	if key == "provider" && !slices.Contains(providers, strings.ToLower(value)) {
		return fmt.Errorf("unsupported provider %q (supported: %s)", value, strings.Join(Providers(), ", "))
	}
	if key == "timeout" {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}
	}

	path, err := FilePath(cfgFile)
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)
	if err := readConfigFile(v); err != nil {
		return err
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// WriteConfigAs keeps the mode of a file that already existed.
	return os.Chmod(path, 0o600)
}

func configureFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to find home directory: %w", err)
	}
	v.AddConfigPath(home)
	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	return nil
}

func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

func envNames(key string) []string {
	prefixed := EnvPrefix + "_" + strings.ToUpper(key)
	if key == "api_key" {
		return []string{APIKeyEnv, prefixed}
	}
	return []string{prefixed}
}
