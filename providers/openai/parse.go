package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/multiplex"
	"github.com/mgreenly/ikigai-sub010/model"
)

type wireErrorBody struct {
	Error *wireError `json:"error"`
}

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wireChoice struct {
	Message      wireRespMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type wireRespMessage struct {
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	CompletionTokensDetails struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
	PromptTokensDetails struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details"`
}

type wireResponse struct {
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage"`
}

// completionToResponse maps an HTTP multiplex completion for a non-streaming
// request to a normalized response or a categorized error.
func completionToResponse(c multiplex.Completion) (*model.Response, error) {
	if c.Type != multiplex.StatusSuccess {
		return nil, classifyCompletion(c)
	}

	var body wireErrorBody
	if err := json.Unmarshal(c.ResponseBody, &body); err == nil && body.Error != nil {
		return nil, errorFromBody(body.Error, c.HTTPStatus, c.Headers)
	}

	var resp wireResponse
	if err := json.Unmarshal(c.ResponseBody, &resp); err != nil {
		return nil, corerr.Wrap(model.ErrorUnknown, err, "parse response JSON")
	}
	if len(resp.Choices) == 0 {
		return nil, corerr.New(model.ErrorUnknown, c.HTTPStatus, "response has no choices")
	}

	choice := resp.Choices[0]
	var content []model.ContentBlock
	if choice.Message.Content != "" {
		content = append(content, model.TextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		content = append(content, model.ToolCallBlock(tc.ID, tc.Function.Name, tc.Function.Arguments))
	}

	usage := model.Usage{}
	if resp.Usage != nil {
		usage = model.Usage{
			InputTokens:    resp.Usage.PromptTokens,
			OutputTokens:   resp.Usage.CompletionTokens,
			ThinkingTokens: resp.Usage.CompletionTokensDetails.ReasoningTokens,
			CachedTokens:   resp.Usage.PromptTokensDetails.CachedTokens,
			TotalTokens:    resp.Usage.TotalTokens,
		}
	}

	return &model.Response{
		Content:      content,
		FinishReason: mapFinishReason(choice.FinishReason),
		Usage:        usage,
		Model:        resp.Model,
	}, nil
}

func classifyCompletion(c multiplex.Completion) error {
	if c.Type == multiplex.StatusNetworkError && c.HTTPStatus == 0 {
		return corerr.Wrap(model.ErrorNetwork, c.Err, c.Message)
	}

	var body wireErrorBody
	if err := json.Unmarshal(c.ResponseBody, &body); err == nil && body.Error != nil {
		return errorFromBody(body.Error, c.HTTPStatus, c.Headers)
	}

	category := corerr.ClassifyHTTPStatus(c.HTTPStatus)
	retryAfter := corerr.ParseRetryAfterHeader(c.Headers)
	msg := c.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", c.HTTPStatus)
	}
	return corerr.New(category, c.HTTPStatus, msg).WithRetryAfter(retryAfter)
}

func errorFromBody(e *wireError, httpStatus int, headers http.Header) error {
	category, ok := corerr.BodyErrorType(e.Type)
	if !ok {
		category = mapErrorType(e.Type)
	}
	return corerr.New(category, httpStatus, e.Message).
		WithProviderCode(e.Type).
		WithRetryAfter(corerr.ParseRetryAfterHeader(headers))
}

// mapErrorType is OpenAI's fallback error-type mapping, looser about
// substring matches than corerr.BodyErrorType's exact table (OpenAI error
// types are occasionally prefixed/suffixed variants).
func mapErrorType(errType string) model.ErrorCategory {
	switch {
	case strings.Contains(errType, "authentication"), strings.Contains(errType, "permission"):
		return model.ErrorAuth
	case strings.Contains(errType, "rate_limit"), strings.Contains(errType, "rate-limit"):
		return model.ErrorRateLimit
	case strings.Contains(errType, "invalid_request"), strings.Contains(errType, "invalid-request"):
		return model.ErrorInvalidArg
	case strings.Contains(errType, "server"), strings.Contains(errType, "service_unavailable"):
		return model.ErrorServer
	default:
		return model.ErrorUnknown
	}
}

func mapFinishReason(raw string) model.FinishReason {
	switch raw {
	case "stop", "stop_sequence":
		return model.FinishStop
	case "length":
		return model.FinishLength
	case "tool_calls", "tool_use":
		return model.FinishToolUse
	case "content_filter", "refusal":
		return model.FinishContentFilter
	default:
		return model.FinishUnknown
	}
}
