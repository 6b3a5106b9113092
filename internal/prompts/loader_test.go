package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(AlignmentFile, "analyze-alignment")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Context}}")
	assert.Contains(t, prompt, "{{.Text}}")
	assert.Contains(t, prompt, "alignment_score")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(AlignmentFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{"single placeholder", "Hello {{.Name}}", map[string]string{"Name": "World"}, "Hello World"},
		{"repeated placeholder", "{{.A}} and {{.A}}", map[string]string{"A": "x"}, "x and x"},
		{"missing value left intact", "{{.A}} {{.B}}", map[string]string{"A": "x"}, "x {{.B}}"},
		{"value containing placeholder is not re-expanded", "{{.A}}", map[string]string{"A": "{{.B}}", "B": "y"}, "{{.B}}"},
		{"no data", "plain", nil, "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.data))
		})
	}
}

func TestRender_AlignmentPrompts(t *testing.T) {
	ClearCache()

	for _, key := range []string{"analyze-alignment", "rewrite-aligned"} {
		out, err := Render(AlignmentFile, key, map[string]string{
			"SystemRole":     "ROLE",
			"ProfileName":    "default",
			"CoreTerms":      "results",
			"SecondaryTerms": "together",
			"MissionPhrases": "job creation",
			"Context":        "CONTEXT",
			"Text":           "DRAFT",
		})
		require.NoError(t, err, key)
		assert.NotContains(t, out, "{{.", key)
		assert.Contains(t, out, "DRAFT", key)
		assert.Contains(t, out, "CONTEXT", key)
	}
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(AlignmentFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"analyze-alignment", "no-context", "rewrite-aligned", "system-role"}, keys)
}
