// Package llm turns prompts into generated commit messages using a remote
// text-generation API.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samzong/aicommit/internal/config"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options tunes the HTTP side of a generator.
type Options struct {
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	// Timeout bounds the whole request. Zero means no timeout.
	Timeout time.Duration
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: o.Timeout}
}

// New returns the generator for cfg.Provider.
func New(cfg *config.Config, opts Options) (Generator, error) {
	if opts.Timeout == 0 {
		opts.Timeout = cfg.Timeout
	}

	switch cfg.Provider {
	case config.ProviderGemini, "":
		return NewGemini(cfg, opts), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg, opts), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
