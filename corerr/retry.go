package corerr

import (
	"net/http"
	"strconv"
	"strings"
)

// ParseRetryAfterHeader extracts the Retry-After hint from an HTTP response's
// headers (OpenAI and Anthropic both set it). The header name is matched
// case-insensitively, including keys stored in non-canonical form.
// Positive integers are honored; anything missing, malformed, or <= 0
// yields -1 ("no hint").
func ParseRetryAfterHeader(h http.Header) int {
	raw := ""
	for name, values := range h {
		if strings.EqualFold(name, "Retry-After") && len(values) > 0 {
			raw = values[0]
			break
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return -1
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return -1
	}
	return seconds
}

// ParseRetryDelaySeconds parses Gemini's body-level retryDelay string
// (e.g. "60s") into whole seconds. Anything malformed, missing the "s"
// suffix, non-numeric, or <= 0 yields -1.
func ParseRetryDelaySeconds(raw string) int {
	raw = strings.TrimSpace(raw)
	if !strings.HasSuffix(raw, "s") {
		return -1
	}
	seconds, err := strconv.Atoi(strings.TrimSuffix(raw, "s"))
	if err != nil || seconds <= 0 {
		return -1
	}
	return seconds
}
