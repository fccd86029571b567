package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/multiplex"
	"github.com/mgreenly/ikigai-sub010/model"
)

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wireErrorEnvelope struct {
	Type  string     `json:"type"`
	Error *wireError `json:"error"`
}

type wireUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

type wireResponse struct {
	Model      string             `json:"model"`
	Content    []wireContentBlock `json:"content"`
	StopReason string             `json:"stop_reason"`
	Usage      wireUsage          `json:"usage"`
}

func completionToResponse(c multiplex.Completion) (*model.Response, error) {
	if c.Type != multiplex.StatusSuccess {
		return nil, classifyCompletion(c)
	}

	var envelope wireErrorEnvelope
	if err := json.Unmarshal(c.ResponseBody, &envelope); err == nil && envelope.Error != nil {
		return nil, errorFromBody(envelope.Error, c.HTTPStatus, c.Headers)
	}

	var resp wireResponse
	if err := json.Unmarshal(c.ResponseBody, &resp); err != nil {
		return nil, corerr.Wrap(model.ErrorUnknown, err, "parse response JSON")
	}

	content := make([]model.ContentBlock, 0, len(resp.Content))
	for _, b := range resp.Content {
		content = append(content, blockFromWire(b))
	}

	return &model.Response{
		Content:      content,
		FinishReason: mapFinishReason(resp.StopReason),
		Usage: model.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CachedTokens: resp.Usage.CacheReadInputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		Model: resp.Model,
	}, nil
}

func blockFromWire(b wireContentBlock) model.ContentBlock {
	switch b.Type {
	case "tool_use":
		return model.ToolCallBlock(b.ID, b.Name, string(b.Input))
	case "thinking":
		return model.ThinkingBlock(b.Thinking, b.Signature)
	case "redacted_thinking":
		return model.RedactedThinkingBlock(b.Data)
	default:
		return model.TextBlock(b.Text)
	}
}

func classifyCompletion(c multiplex.Completion) error {
	if c.Type == multiplex.StatusNetworkError && c.HTTPStatus == 0 {
		return corerr.Wrap(model.ErrorNetwork, c.Err, c.Message)
	}

	var envelope wireErrorEnvelope
	if err := json.Unmarshal(c.ResponseBody, &envelope); err == nil && envelope.Error != nil {
		return errorFromBody(envelope.Error, c.HTTPStatus, c.Headers)
	}

	msg := c.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", c.HTTPStatus)
	}
	return corerr.New(corerr.ClassifyHTTPStatus(c.HTTPStatus), c.HTTPStatus, msg).
		WithRetryAfter(corerr.ParseRetryAfterHeader(c.Headers))
}

func errorFromBody(e *wireError, httpStatus int, headers http.Header) error {
	category, ok := corerr.BodyErrorType(e.Type)
	if !ok {
		category = model.ErrorUnknown
	}
	return corerr.New(category, httpStatus, e.Message).
		WithProviderCode(e.Type).
		WithRetryAfter(corerr.ParseRetryAfterHeader(headers))
}

func mapFinishReason(raw string) model.FinishReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return model.FinishStop
	case "max_tokens":
		return model.FinishLength
	case "tool_use":
		return model.FinishToolUse
	case "refusal":
		return model.FinishContentFilter
	default:
		return model.FinishUnknown
	}
}
