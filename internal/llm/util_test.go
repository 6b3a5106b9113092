package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"generic code block", "```\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"plain JSON", `{"key": "value"}`, `{"key": "value"}`},
		{"preamble", "Here is the analysis:\n{\"a\": 1}", `{"a": 1}`},
		{"trailing text", "{\"a\": 1}\n\nLet me know!", `{"a": 1}`},
		{"braces inside strings", `{"t": "Hello {name}!"}`, `{"t": "Hello {name}!"}`},
		{"escaped quotes", `Result: {"m": "He said \"hi\""}`, `{"m": "He said \"hi\""}`},
		{"array", "Items: [\"a\", \"b\"]", `["a", "b"]`},
		{"no json", "no structured output", "no structured output"},
		{"unbalanced left as is", `{"a": 1`, `{"a": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": [1, 2]}}`, extractBalanced(`{"a": {"b": [1, 2]}} tail`))
	assert.Equal(t, "", extractBalanced("not json"))
	assert.Equal(t, "", extractBalanced(""))
	assert.Equal(t, "", extractBalanced(`{"open": true`))
}
