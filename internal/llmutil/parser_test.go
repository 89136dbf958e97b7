package llmutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Nodes []string `json:"nodes"`
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"plain object", `  {"nodes": ["a"]}  `, `{"nodes": ["a"]}`},
		{"plain array", `["a", "b"]`, `["a", "b"]`},
		{"fenced json", "```json\n{\"nodes\": []}\n```", `{"nodes": []}`},
		{"fenced without tag", "```\n{\"nodes\": []}\n```", `{"nodes": []}`},
		{"fenced array", "```json\n[1, 2]\n```", `[1, 2]`},
		{"prose around object", `Here is the graph: {"nodes": ["x"]} Hope it helps!`, `{"nodes": ["x"]}`},
		{"prose around array", `Result: [1, 2] done`, `[1, 2]`},
		{"no json at all", `sorry, I cannot help`, `sorry, I cannot help`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.response))
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	t.Run("fenced object", func(t *testing.T) {
		got, err := ParseJSONResponse[sample]("```json\n{\"nodes\": [\"a\", \"b\"]}\n```")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got.Nodes)
	})

	t.Run("invalid json reports a truncated snippet", func(t *testing.T) {
		long := `{"nodes": [` + strings.Repeat(`"x",`, 300)
		_, err := ParseJSONResponse[sample](long)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal LLM JSON response")
		assert.Contains(t, err.Error(), "...")
	})
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "", truncateString("abc", 0))
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "ab...", truncateString("abc", 2))
}
