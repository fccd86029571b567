package corerr

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfterHeader(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"positive integer", http.Header{"Retry-After": []string{"60"}}, 60},
		{"negative integer", http.Header{"Retry-After": []string{"-5"}}, -1},
		{"zero", http.Header{"Retry-After": []string{"0"}}, -1},
		{"missing", http.Header{}, -1},
		{"non-numeric", http.Header{"Retry-After": []string{"soon"}}, -1},
		{"case-insensitive key", http.Header{"retry-after": []string{"30"}}, 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRetryAfterHeader(tc.header))
		})
	}
}

func TestParseRetryDelaySeconds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"thirty seconds", "30s", 30},
		{"missing suffix", "30", -1},
		{"zero", "0s", -1},
		{"negative", "-5s", -1},
		{"empty", "", -1},
		{"non-numeric", "soons", -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRetryDelaySeconds(tc.raw))
		})
	}
}
