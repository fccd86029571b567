package providers

import "strings"

// Capability describes what a model supports beyond the baseline chat
// contract: the lookup a request serializer needs to decide, e.g., whether
// to emit a thinking knob at all and what budget to cap it at.
type Capability struct {
	SupportsThinking bool
	MaxThinkingBudget int // 0 when thinking is effort-based (OpenAI) or unsupported
}

// ModelCapability reports the capability of a model by prefix match,
// preferring the most specific known prefix. The second return is false for
// an unrecognized model, in which case callers should fall back to a
// provider's own conservative default.
func ModelCapability(modelName string) (Capability, bool) {
	switch {
	case strings.HasPrefix(modelName, "o1-"), strings.HasPrefix(modelName, "o3-"), modelName == "o3",
		strings.HasPrefix(modelName, "gpt-5"):
		return Capability{SupportsThinking: true}, true
	case strings.HasPrefix(modelName, "gpt-"):
		return Capability{SupportsThinking: false}, true
	case strings.HasPrefix(modelName, "claude-"):
		return Capability{SupportsThinking: true, MaxThinkingBudget: 32000}, true
	case strings.HasPrefix(modelName, "gemini-2.5-pro"):
		return Capability{SupportsThinking: true, MaxThinkingBudget: 32768}, true
	case strings.HasPrefix(modelName, "gemini-2.5-flash"):
		return Capability{SupportsThinking: true, MaxThinkingBudget: 24576}, true
	case strings.HasPrefix(modelName, "gemini-"):
		return Capability{SupportsThinking: false}, true
	default:
		return Capability{}, false
	}
}
