package anthropic

import (
	"encoding/json"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/jsonvalidate"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
)

const defaultMaxTokens = 4096

type wireContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`

	// thinking / redacted_thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
	Data      string `json:"data,omitempty"`
}

type wireMessage struct {
	Role    string             `json:"role"`
	Content []wireContentBlock `json:"content"`
}

type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

type wireThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

type wireRequest struct {
	Model      string        `json:"model"`
	System     string        `json:"system,omitempty"`
	Messages   []wireMessage `json:"messages"`
	Tools      []wireTool    `json:"tools,omitempty"`
	ToolChoice any           `json:"tool_choice,omitempty"`
	MaxTokens  int           `json:"max_tokens"`
	Thinking   *wireThinking `json:"thinking,omitempty"`
	Stream     bool          `json:"stream,omitempty"`
}

func serializeRequest(req model.Request, streaming bool) ([]byte, error) {
	if req.Model == "" {
		return nil, corerr.New(model.ErrorInvalidArg, 0, "model is required")
	}

	messages := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := string(m.Role)
		if m.Role == model.RoleTool {
			role = "user" // Anthropic carries tool_result blocks inside a user-role message
		}
		blocks := make([]wireContentBlock, 0, len(m.Content))
		for _, block := range m.Content {
			wb, err := convertBlock(block)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, wb)
		}
		messages = append(messages, wireMessage{Role: role, Content: blocks})
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
		System:     req.SystemPrompt,
		Messages:   messages,
		Tools:      tools,
		ToolChoice: convertToolChoice(req.ToolChoice),
		MaxTokens:  maxTokens,
		Stream:     streaming,
	}
	if req.Thinking.Level != "" && req.Thinking.Level != model.ThinkingNone {
		if modelCap, ok := providers.ModelCapability(req.Model); ok && modelCap.SupportsThinking {
			wire.Thinking = &wireThinking{Type: "enabled", BudgetTokens: thinkingBudget(req.Thinking.Level, modelCap.MaxThinkingBudget)}
		}
	}

	return json.Marshal(wire)
}

// thinkingBudget maps the opaque core thinking level to Anthropic's
// token-budget knob: a nested object carrying a concrete token-budget
// integer, rather than OpenAI's effort-level string. The result is capped
// at maxBudget, the model's capability ceiling.
func thinkingBudget(level model.ThinkingLevel, maxBudget int) int {
	budget := 0
	switch level {
	case model.ThinkingLow:
		budget = 4096
	case model.ThinkingMedium:
		budget = 16384
	case model.ThinkingHigh:
		budget = 32000
	}
	if maxBudget > 0 && budget > maxBudget {
		return maxBudget
	}
	return budget
}

func convertToolChoice(tc model.ToolChoice) any {
	switch tc.Mode {
	case model.ToolChoiceNone:
		return map[string]string{"type": "none"}
	case model.ToolChoiceRequired:
		return map[string]string{"type": "any"}
	case model.ToolChoiceSpecific:
		return map[string]string{"type": "tool", "name": tc.ToolName}
	case model.ToolChoiceAuto:
		return map[string]string{"type": "auto"}
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
		var schema json.RawMessage
		if t.ParamsJSON != "" {
			if err := jsonvalidate.ValidateToolParamsJSON(t.ParamsJSON); err != nil {
				return nil, corerr.Wrap(model.ErrorInvalidArg, err, "invalid tool parameters JSON for tool "+t.Name)
			}
			schema = json.RawMessage(t.ParamsJSON)
		}
		wire = append(wire, wireTool{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	return wire, nil
}

func convertBlock(block model.ContentBlock) (wireContentBlock, error) {
	switch block.Kind {
	case model.ContentText:
		return wireContentBlock{Type: "text", Text: block.Text}, nil
	case model.ContentToolCall:
		input := json.RawMessage(block.ToolArgsJSON)
		if len(input) == 0 {
			input = json.RawMessage("{}")
		}
		return wireContentBlock{Type: "tool_use", ID: block.ToolCallID, Name: block.ToolName, Input: input}, nil
	case model.ContentToolResult:
		return wireContentBlock{Type: "tool_result", ToolUseID: block.ToolResultForID, Content: block.ToolResultText, IsError: block.ToolResultError}, nil
	case model.ContentThinking:
		return wireContentBlock{Type: "thinking", Thinking: block.ThinkingText, Signature: block.ThinkingSignature}, nil
	case model.ContentRedactedThinking:
		return wireContentBlock{Type: "redacted_thinking", Data: block.RedactedData}, nil
	default:
		return wireContentBlock{}, corerr.New(model.ErrorInvalidArg, 0, "unknown content block kind")
	}
}
