package openai

import (
	"net/http"
	"testing"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/multiplex"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionToResponse_Success(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","choices":[{"message":{"content":"hello"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`)
	resp, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusSuccess, HTTPStatus: 200, ResponseBody: body})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, model.FinishStop, resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.InputTokens)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "hello", resp.Content[0].Text)
}

func TestCompletionToResponse_BodyErrorOverridesStatus(t *testing.T) {
	body := []byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`)
	_, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusServerError, HTTPStatus: 500, ResponseBody: body})
	require.Error(t, err)
	assert.Equal(t, model.ErrorRateLimit, corerr.CategoryOf(err))
}

func TestCompletionToResponse_RetryAfterHeaderPropagates(t *testing.T) {
	body := []byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`)
	headers := http.Header{"Retry-After": []string{"60"}}
	_, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusClientError, HTTPStatus: 429, ResponseBody: body, Headers: headers})
	require.Error(t, err)
	seconds, ok := corerr.RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 60, seconds)
}

func TestCompletionToResponse_MissingRetryAfterHeaderYieldsNoHint(t *testing.T) {
	body := []byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`)
	_, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusClientError, HTTPStatus: 429, ResponseBody: body})
	require.Error(t, err)
	seconds, ok := corerr.RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, -1, seconds)
}
