package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samzong/aicommit/internal/config"
)

// ErrMalformedResponse reports a response body without
// candidates[0].content.parts[0].text.
var ErrMalformedResponse = errors.New("malformed generateContent response")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
	// Message is the "error.message" field of a Gemini error body, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation API returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("generation API returned %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type generateContentRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

// generateContentResponse mirrors the parts of the generateContent response
// this package reads. Pointers distinguish missing keys from empty values.
type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      *responseContent `json:"content"`
	FinishReason string           `json:"finishReason,omitempty"`
}

type responseContent struct {
	Parts []responsePart `json:"parts"`
	Role  string         `json:"role,omitempty"`
}

type responsePart struct {
	Text *string `json:"text"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Gemini calls the Gemini REST generateContent endpoint, passing the API key
// as the "key" query parameter.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGemini(cfg *config.Config, opts Options) *Gemini {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	return &Gemini{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: opts.httpClient(),
	}
}

func (g *Gemini) endpoint() string {
	return g.baseURL + g.model + ":generateContent?key=" + url.QueryEscape(g.apiKey)
}

// Generate sends a single POST and returns the first candidate's text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateContentRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", g.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call generation API: %w", g.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var errBody errorResponse
		if json.Unmarshal(body, &errBody) == nil {
			apiErr.Message = errBody.Error.Message
		}
		return "", apiErr
	}

	return ExtractText(body)
}

// redact strips the API key from URLs embedded in transport errors.
func (g *Gemini) redact(err error) error {
	var urlErr *url.Error
	if g.apiKey != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(g.apiKey), "REDACTED")
	}
	return err
}

// ExtractText parses a generateContent response body and returns
// candidates[0].content.parts[0].text unmodified.
func ExtractText(body []byte) (string, error) {
	var resp generateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	switch {
	case len(resp.Candidates) == 0:
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	case resp.Candidates[0].Content == nil:
		return "", fmt.Errorf("%w: candidate has no content (finish reason %q)", ErrMalformedResponse, resp.Candidates[0].FinishReason)
	case len(resp.Candidates[0].Content.Parts) == 0:
		return "", fmt.Errorf("%w: content has no parts", ErrMalformedResponse)
	case resp.Candidates[0].Content.Parts[0].Text == nil:
		return "", fmt.Errorf("%w: part has no text", ErrMalformedResponse)
	}

	return *resp.Candidates[0].Content.Parts[0].Text, nil
}
