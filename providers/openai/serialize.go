package openai

import (
	"encoding/json"
	"strings"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/jsonvalidate"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
)

const chatCompletionsPath = "/v1/chat/completions"

const defaultMaxTokens = 4096

type wireMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []wireToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireToolCallFunc `json:"function"`
}

type wireToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Strict      bool            `json:"strict,omitempty"`
}

type wireStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type wireRequest struct {
	Model           string             `json:"model"`
	Messages        []wireMessage      `json:"messages"`
	Tools           []wireTool         `json:"tools,omitempty"`
	ToolChoice      any                `json:"tool_choice,omitempty"`
	MaxTokens       int                `json:"max_tokens,omitempty"`
	ReasoningEffort string             `json:"reasoning_effort,omitempty"`
	Stream          bool               `json:"stream,omitempty"`
	StreamOptions   *wireStreamOptions `json:"stream_options,omitempty"`
}

// serializeRequest translates a normalized request into the wire JSON body
// for the Chat Completions endpoint.
func serializeRequest(req model.Request, streaming bool) ([]byte, error) {
	if req.Model == "" {
		return nil, corerr.New(model.ErrorInvalidArg, 0, "model is required")
	}

	messages := make([]wireMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, wireMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		converted, err := convertMessage(m)
		if err != nil {
			return nil, err
		}
		messages = append(messages, converted...)
	}

	tools, err := convertTools(req.Tools)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	wire := wireRequest{
		Model:      req.Model,
		Messages:   messages,
		Tools:      tools,
		ToolChoice: convertToolChoice(req.ToolChoice),
		MaxTokens:  maxTokens,
		Stream:     streaming,
	}
	if streaming {
		wire.StreamOptions = &wireStreamOptions{IncludeUsage: true}
	}
	if req.Thinking.Level != "" && req.Thinking.Level != model.ThinkingNone {
		if modelCap, ok := providers.ModelCapability(req.Model); ok && modelCap.SupportsThinking {
			wire.ReasoningEffort = reasoningEffort(req.Thinking.Level)
		}
	}

	return json.Marshal(wire)
}

func reasoningEffort(level model.ThinkingLevel) string {
	switch level {
	case model.ThinkingLow:
		return "low"
	case model.ThinkingMedium:
		return "medium"
	case model.ThinkingHigh:
		return "high"
	default:
		return ""
	}
}

func convertToolChoice(tc model.ToolChoice) any {
	switch tc.Mode {
	case model.ToolChoiceNone:
		return "none"
	case model.ToolChoiceRequired:
		return "required"
	case model.ToolChoiceSpecific:
		return map[string]any{
			"type":     "function",
			"function": map[string]string{"name": tc.ToolName},
		}
	case model.ToolChoiceAuto:
		return "auto"
	default:
		return nil
	}
}

func convertTools(tools []model.ToolDefinition) ([]wireTool, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	wire := make([]wireTool, 0, len(tools))
	for _, t := range tools {
		var params json.RawMessage
		if t.ParamsJSON != "" {
			if err := jsonvalidate.ValidateToolParamsJSON(t.ParamsJSON); err != nil {
				return nil, corerr.Wrap(model.ErrorInvalidArg, err, "invalid tool parameters JSON for tool "+t.Name)
			}
			params = json.RawMessage(t.ParamsJSON)
		}
		wire = append(wire, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
				Strict:      t.Strict,
			},
		})
	}
	return wire, nil
}

// convertMessage expands a single normalized Message into zero or more wire
// messages: an assistant message carrying tool calls becomes one message,
// but tool-result content blocks become their own tool-role messages since
// the wire format has no equivalent to embedding results inline.
func convertMessage(m model.Message) ([]wireMessage, error) {
	role := string(m.Role)
	var out []wireMessage
	var text strings.Builder
	var toolCalls []wireToolCall

	for _, block := range m.Content {
		switch block.Kind {
		case model.ContentText:
			text.WriteString(block.Text)
		case model.ContentToolCall:
			toolCalls = append(toolCalls, wireToolCall{
				ID:   block.ToolCallID,
				Type: "function",
				Function: wireToolCallFunc{
					Name:      block.ToolName,
					Arguments: block.ToolArgsJSON,
				},
			})
		case model.ContentToolResult:
			out = append(out, wireMessage{
				Role:       "tool",
				Content:    block.ToolResultText,
				ToolCallID: block.ToolResultForID,
			})
		case model.ContentThinking, model.ContentRedactedThinking:
			// Chat Completions has no wire representation for reasoning
			// content on a round-tripped turn; dropped rather than sent.
		}
	}

	if text.Len() > 0 || len(toolCalls) > 0 {
		out = append([]wireMessage{{Role: role, Content: text.String(), ToolCalls: toolCalls}}, out...)
	}
	return out, nil
}
