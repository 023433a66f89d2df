package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samzong/aicommit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiServer(t *testing.T, handler http.HandlerFunc) (*config.Config, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIKey:   "test-key",
		Model:    config.DefaultModel,
		BaseURL:  srv.URL + "/v1beta/models/",
		Provider: config.ProviderGemini,
	}
	return cfg, srv
}

func TestGemini_Generate(t *testing.T) {
	var gotBody map[string]any
	cfg, _ := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Improve logging\n\n- add timestamps"}],"role":"model"},"finishReason":"STOP"}]}`)
	})

	message, err := NewGemini(cfg, Options{}).Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "Improve logging\n\n- add timestamps", message)

	expected := map[string]any{
		"contents": []any{
			map[string]any{"parts": []any{map[string]any{"text": "the prompt"}}},
		},
	}
	assert.Equal(t, expected, gotBody)
}

func TestGemini_NonSuccessStatus(t *testing.T) {
	cfg, _ := newGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := NewGemini(cfg, Options{}).Generate(context.Background(), "p")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", apiErr.Message)
	assert.Contains(t, apiErr.Body, "INVALID_ARGUMENT")
	assert.Equal(t, "generation API returned 400: API key not valid. Please pass a valid API key.", err.Error())
}

func TestGemini_NonJSONErrorBody(t *testing.T) {
	cfg, _ := newGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	_, err := NewGemini(cfg, Options{}).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, "generation API returned 502: upstream unavailable", err.Error())
}

func TestGemini_InvalidJSON(t *testing.T) {
	cfg, _ := newGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := NewGemini(cfg, Options{}).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestGemini_TransportErrorHidesKey(t *testing.T) {
	cfg, srv := newGeminiServer(t, func(http.ResponseWriter, *http.Request) {})
	srv.Close()

	_, err := NewGemini(cfg, Options{}).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call generation API")
	assert.NotContains(t, err.Error(), "test-key")
	assert.Contains(t, err.Error(), "key=REDACTED")
}

func TestGemini_ContextCancelled(t *testing.T) {
	cfg, _ := newGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGemini(cfg, Options{}).Generate(ctx, "p")
	require.ErrorIs(t, err, context.Canceled)
}

func TestGemini_Endpoint(t *testing.T) {
	g := NewGemini(&config.Config{APIKey: "k+/=", Model: "gemini-1.5-pro"}, Options{})
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent?key=k%2B%2F%3D",
		g.endpoint())
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      string
		malformed bool
		wantErr   string
	}{
		{
			name: "well formed",
			body: `{"candidates":[{"content":{"parts":[{"text":"Fix bug\n\n- did X"}]}}]}`,
			want: "Fix bug\n\n- did X",
		},
		{
			name: "text kept verbatim",
			body: `{"candidates":[{"content":{"parts":[{"text":"  padded\n"}]}}]}`,
			want: "  padded\n",
		},
		{
			name: "only first candidate and part",
			body: `{"candidates":[{"content":{"parts":[{"text":"first"},{"text":"second"}]}},{"content":{"parts":[{"text":"other"}]}}]}`,
			want: "first",
		},
		{name: "missing candidates", body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, malformed: true},
		{name: "empty candidates", body: `{"candidates":[]}`, malformed: true},
		{name: "missing content", body: `{"candidates":[{"finishReason":"SAFETY"}]}`, malformed: true},
		{name: "missing parts", body: `{"candidates":[{"content":{"role":"model"}}]}`, malformed: true},
		{name: "missing text", body: `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`, malformed: true},
		{name: "not json", body: `<html>`, wantErr: "failed to parse response"},
		{name: "wrong shape", body: `{"candidates":{"content":"x"}}`, wantErr: "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.body))
			switch {
			case tt.malformed:
				require.ErrorIs(t, err, ErrMalformedResponse)
				assert.Empty(t, got)
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, got)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
