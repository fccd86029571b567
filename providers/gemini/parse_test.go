package gemini

import (
	"testing"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/multiplex"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionToResponse_Success(t *testing.T) {
	body := []byte(`{"modelVersion":"gemini-2.5-flash","candidates":[{"content":{"parts":[{"text":"hello"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15}}`)
	resp, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusSuccess, HTTPStatus: 200, ResponseBody: body})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, model.FinishStop, resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.OutputTokens)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "hello", resp.Content[0].Text)
}

func TestCompletionToResponse_BlockedPrompt(t *testing.T) {
	body := []byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`)
	_, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusSuccess, HTTPStatus: 200, ResponseBody: body})
	require.Error(t, err)
	assert.Equal(t, model.ErrorContentFilter, corerr.CategoryOf(err))
}

func TestCompletionToResponse_BodyErrorOverridesStatus(t *testing.T) {
	body := []byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"slow down"}}`)
	_, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusServerError, HTTPStatus: 500, ResponseBody: body})
	require.Error(t, err)
	assert.Equal(t, model.ErrorRateLimit, corerr.CategoryOf(err))
}

func TestCompletionToResponse_RetryDelayPropagates(t *testing.T) {
	body := []byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"slow down","details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"30s"}]}}`)
	_, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusClientError, HTTPStatus: 429, ResponseBody: body})
	require.Error(t, err)
	seconds, ok := corerr.RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 30, seconds)
}

func TestCompletionToResponse_MissingRetryDelayYieldsNoHint(t *testing.T) {
	body := []byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"slow down"}}`)
	_, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusClientError, HTTPStatus: 429, ResponseBody: body})
	require.Error(t, err)
	seconds, ok := corerr.RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, -1, seconds)
}

func TestCompletionToResponse_FunctionCallGetsSyntheticID(t *testing.T) {
	body := []byte(`{"modelVersion":"gemini-2.5-flash","candidates":[{"content":{"parts":[{"functionCall":{"name":"get_weather","args":{"location":"NYC"}}}]},"finishReason":"STOP"}]}`)
	resp, err := completionToResponse(multiplex.Completion{Type: multiplex.StatusSuccess, HTTPStatus: 200, ResponseBody: body})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Len(t, resp.Content[0].ToolCallID, 22)
	assert.Equal(t, "get_weather", resp.Content[0].ToolName)
}
