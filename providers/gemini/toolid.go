package gemini

import (
	"crypto/rand"
	"encoding/base64"
)

// newToolCallID generates a synthetic tool-call identifier: 16 random bytes,
// base64url-encoded without padding, producing 22 characters. Gemini does
// not supply its own id for a functionCall part, unlike OpenAI and
// Anthropic.
func newToolCallID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
