package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferProvider(t *testing.T) {
	cases := []struct {
		model string
		want  Name
		ok    bool
	}{
		{"gpt-4o", OpenAI, true},
		{"o1-preview", OpenAI, true},
		{"o3-mini", OpenAI, true},
		{"o3", OpenAI, true},
		{"claude-opus-4-6", Anthropic, true},
		{"gemini-2.5-flash", Gemini, true},
		{"llama-3", "", false},
		{"GPT-4o", "", false}, // case-sensitive
	}
	for _, c := range cases {
		got, ok := InferProvider(c.model)
		assert.Equal(t, c.ok, ok, c.model)
		assert.Equal(t, c.want, got, c.model)
	}
}

func TestModelCapability_OpenAIPrefixesAndUnknown(t *testing.T) {
	cap1, ok := ModelCapability("o1-preview")
	assert.True(t, ok)
	assert.True(t, cap1.SupportsThinking)

	cap2, ok := ModelCapability("gpt-4o")
	assert.True(t, ok)
	assert.False(t, cap2.SupportsThinking)

	_, ok = ModelCapability("unknown-model")
	assert.False(t, ok)
}
