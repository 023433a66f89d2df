package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Instructions(t *testing.T) {
	diff := "diff --git a/main.go b/main.go\n+fmt.Println(\"D\")\n"

	result := Build(diff)

	expectContain := []string{
		diff,
		"'-' as the bullet character",
		"at most 50 characters",
		"at most 70 characters",
		"Do NOT include prefixes like 'feat:' or 'fix:'",
		"no special characters or emojis",
		"<commit message>",
	}
	for _, expected := range expectContain {
		assert.Contains(t, result, expected, "prompt should contain: %s", expected)
	}
}

func TestBuild_DiffIsLastAndVerbatim(t *testing.T) {
	diff := "D"
	result := Build(diff)

	assert.True(t, strings.HasSuffix(result, "\n\nD\n"))
	assert.Less(t, strings.Index(result, "Guidelines"), strings.LastIndex(result, "D"))
}

func TestBuild_TemplateSyntaxInDiffIsNotInterpreted(t *testing.T) {
	diff := "+const tpl = \"{{.Diff}} {{ if }}\"\n+<script>&amp;</script>"

	assert.Contains(t, Build(diff), diff)
}

func TestBuild_Deterministic(t *testing.T) {
	assert.Equal(t, Build("same"), Build("same"))
}

func TestDefaultTemplate_IsASCII(t *testing.T) {
	for i, r := range DefaultTemplate() {
		if r > 127 {
			t.Fatalf("non-ASCII rune %q at offset %d", r, i)
		}
	}
}

func TestNewBuilder(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "valid", content: "Summarize:\n{{.Diff}}"},
		{name: "empty", content: "  \n", wantErr: "empty"},
		{name: "parse error", content: "{{.Diff", wantErr: "template parsing error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder(tt.content)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			out, err := b.Build("D")
			require.NoError(t, err)
			assert.Equal(t, "Summarize:\nD", out)
		})
	}
}

func TestBuilder_UnknownFieldFails(t *testing.T) {
	b, err := NewBuilder("{{.Role}} {{.Diff}}")
	require.NoError(t, err)

	_, err = b.Build("D")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template rendering error")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "short.yaml")
	yamlContent := "name: short\ndescription: one line only\ntemplate: |\n  One line summary for:\n  {{.Diff}}\n"
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0o644))

	rawPath := filepath.Join(dir, "raw.tmpl")
	require.NoError(t, os.WriteFile(rawPath, []byte("Raw prompt\n{{.Diff}}"), 0o644))

	t.Run("empty path uses default", func(t *testing.T) {
		b, err := FromFile("")
		require.NoError(t, err)
		assert.Same(t, Default(), b)
	})

	t.Run("yaml file", func(t *testing.T) {
		b, err := FromFile(yamlPath)
		require.NoError(t, err)

		out, err := b.Build("D")
		require.NoError(t, err)
		assert.Equal(t, "One line summary for:\nD\n", out)
	})

	t.Run("raw file", func(t *testing.T) {
		b, err := FromFile(rawPath)
		require.NoError(t, err)

		out, err := b.Build("D")
		require.NoError(t, err)
		assert.Equal(t, "Raw prompt\nD", out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FromFile(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to read template file")
	})
}
