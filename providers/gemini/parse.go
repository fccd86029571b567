package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/multiplex"
	"github.com/mgreenly/ikigai-sub010/model"
)

type wireError struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Details []wireErrorDetail `json:"details"`
}

// wireErrorDetail models the one entry of Gemini's error.details array this
// module cares about: a google.rpc.RetryInfo carrying a "60s"-style delay.
type wireErrorDetail struct {
	Type       string `json:"@type"`
	RetryDelay string `json:"retryDelay"`
}

// retryDelaySeconds scans an error's details for a RetryInfo entry and
// parses its retryDelay, returning -1 if none is present or it doesn't
// parse.
func (e *wireError) retryDelaySeconds() int {
	for _, d := range e.Details {
		if d.RetryDelay == "" {
			continue
		}
		if seconds := corerr.ParseRetryDelaySeconds(d.RetryDelay); seconds > 0 {
			return seconds
		}
	}
	return -1
}

type wireErrorEnvelope struct {
	Error *wireError `json:"error"`
}

type wireUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type wireCandidate struct {
	Content      wireContent `json:"content"`
	FinishReason string      `json:"finishReason"`
}

type wirePromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type wireResponse struct {
	ModelVersion   string             `json:"modelVersion"`
	Candidates     []wireCandidate    `json:"candidates"`
	UsageMetadata  *wireUsageMetadata `json:"usageMetadata"`
	PromptFeedback *wirePromptFeedback `json:"promptFeedback"`
}

func completionToResponse(c multiplex.Completion) (*model.Response, error) {
	if c.Type != multiplex.StatusSuccess {
		return nil, classifyCompletion(c)
	}

	var envelope wireErrorEnvelope
	if err := json.Unmarshal(c.ResponseBody, &envelope); err == nil && envelope.Error != nil {
		return nil, errorFromBody(envelope.Error, c.HTTPStatus)
	}

	var resp wireResponse
	if err := json.Unmarshal(c.ResponseBody, &resp); err != nil {
		return nil, corerr.Wrap(model.ErrorUnknown, err, "parse response JSON")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, corerr.New(model.ErrorContentFilter, c.HTTPStatus, "prompt blocked: "+resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, corerr.New(model.ErrorUnknown, c.HTTPStatus, "response has no candidates")
	}

	candidate := resp.Candidates[0]
	var content []model.ContentBlock
	for _, part := range candidate.Content.Parts {
		block, ok, err := blockFromPart(part)
		if err != nil {
			return nil, err
		}
		if ok {
			content = append(content, block)
		}
	}

	usage := model.Usage{}
	if resp.UsageMetadata != nil {
		thinking := resp.UsageMetadata.ThoughtsTokenCount
		usage = model.Usage{
			InputTokens:    resp.UsageMetadata.PromptTokenCount,
			OutputTokens:   resp.UsageMetadata.CandidatesTokenCount - thinking,
			ThinkingTokens: thinking,
			TotalTokens:    resp.UsageMetadata.TotalTokenCount,
		}
	}

	return &model.Response{
		Content:      content,
		FinishReason: mapFinishReason(candidate.FinishReason),
		Usage:        usage,
		Model:        resp.ModelVersion,
	}, nil
}

func blockFromPart(part wirePart) (model.ContentBlock, bool, error) {
	switch {
	case part.FunctionCall != nil:
		id, err := newToolCallID()
		if err != nil {
			return model.ContentBlock{}, false, corerr.Wrap(model.ErrorUnknown, err, "generate tool call id")
		}
		args := "{}"
		if len(part.FunctionCall.Args) > 0 {
			args = string(part.FunctionCall.Args)
		}
		return model.ToolCallBlock(id, part.FunctionCall.Name, args), true, nil
	case part.Text != "" && part.Thought:
		return model.ThinkingBlock(part.Text, ""), true, nil
	case part.Text != "":
		return model.TextBlock(part.Text), true, nil
	default:
		return model.ContentBlock{}, false, nil
	}
}

func classifyCompletion(c multiplex.Completion) error {
	if c.Type == multiplex.StatusNetworkError && c.HTTPStatus == 0 {
		return corerr.Wrap(model.ErrorNetwork, c.Err, c.Message)
	}

	var envelope wireErrorEnvelope
	if err := json.Unmarshal(c.ResponseBody, &envelope); err == nil && envelope.Error != nil {
		return errorFromBody(envelope.Error, c.HTTPStatus)
	}

	msg := c.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", c.HTTPStatus)
	}
	return corerr.New(classifyHTTPStatus(c.HTTPStatus), c.HTTPStatus, msg)
}

// classifyHTTPStatus applies Gemini's override of the default status table:
// 504 maps to timeout instead of server.
func classifyHTTPStatus(status int) model.ErrorCategory {
	if status == 504 {
		return model.ErrorTimeout
	}
	return corerr.ClassifyHTTPStatus(status)
}

func errorFromBody(e *wireError, httpStatus int) error {
	category := mapErrorStatus(e.Status)
	if httpStatus == 0 {
		httpStatus = e.Code
	}
	return corerr.New(category, httpStatus, e.Message).
		WithProviderCode(e.Status).
		WithRetryAfter(e.retryDelaySeconds())
}

func mapErrorStatus(status string) model.ErrorCategory {
	switch status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return model.ErrorAuth
	case "RESOURCE_EXHAUSTED":
		return model.ErrorRateLimit
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION":
		return model.ErrorInvalidArg
	case "NOT_FOUND":
		return model.ErrorNotFound
	case "DEADLINE_EXCEEDED":
		return model.ErrorTimeout
	case "UNAVAILABLE", "INTERNAL", "ABORTED":
		return model.ErrorServer
	default:
		return model.ErrorUnknown
	}
}

func mapFinishReason(raw string) model.FinishReason {
	switch raw {
	case "STOP":
		return model.FinishStop
	case "MAX_TOKENS":
		return model.FinishLength
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT", "RECITATION":
		return model.FinishContentFilter
	case "MALFORMED_FUNCTION_CALL", "UNEXPECTED_TOOL_CALL":
		return model.FinishError
	case "":
		return model.FinishUnknown
	default:
		return model.FinishUnknown
	}
}
