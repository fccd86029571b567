package gemini

import (
	"encoding/json"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/jsonvalidate"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
)

type wirePart struct {
	Text             string              `json:"text,omitempty"`
	FunctionCall     *wireFunctionCall   `json:"functionCall,omitempty"`
	FunctionResponse *wireFunctionResp   `json:"functionResponse,omitempty"`
	Thought          bool                `json:"thought,omitempty"`
}

type wireFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type wireFunctionResp struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireFunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type wireTool struct {
	FunctionDeclarations []wireFunctionDeclaration `json:"functionDeclarations"`
}

type wireFunctionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

type wireToolConfig struct {
	FunctionCallingConfig wireFunctionCallingConfig `json:"functionCallingConfig"`
}

type wireThinkingConfig struct {
	ThinkingBudget  int  `json:"thinkingBudget"`
	IncludeThoughts bool `json:"includeThoughts,omitempty"`
}

type wireGenerationConfig struct {
	MaxOutputTokens int                 `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *wireThinkingConfig `json:"thinkingConfig,omitempty"`
}

type wireRequest struct {
	SystemInstruction *wireContent          `json:"systemInstruction,omitempty"`
	Contents          []wireContent         `json:"contents"`
	Tools             []wireTool            `json:"tools,omitempty"`
	ToolConfig        *wireToolConfig       `json:"toolConfig,omitempty"`
	GenerationConfig  *wireGenerationConfig `json:"generationConfig,omitempty"`
}

func serializeRequest(req model.Request) ([]byte, error) {
	if req.Model == "" {
		return nil, corerr.New(model.ErrorInvalidArg, 0, "model is required")
	}

	contents := make([]wireContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		content, err := convertMessage(m)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}

	var sysInstruction *wireContent
	if req.SystemPrompt != "" {
		sysInstruction = &wireContent{Parts: []wirePart{{Text: req.SystemPrompt}}}
	}

	tools, err := convertTools(req.Tools)
	if err != nil {
		return nil, err
	}

	wire := wireRequest{
		SystemInstruction: sysInstruction,
		Contents:          contents,
		Tools:             tools,
		ToolConfig:        convertToolChoice(req.ToolChoice),
	}

	genConfig := &wireGenerationConfig{}
	hasGenConfig := false
	if req.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = req.MaxOutputTokens
		hasGenConfig = true
	}
	if req.Thinking.Level != "" && req.Thinking.Level != model.ThinkingNone {
		if modelCap, ok := providers.ModelCapability(req.Model); ok && modelCap.SupportsThinking {
			genConfig.ThinkingConfig = &wireThinkingConfig{
				ThinkingBudget:  thinkingBudget(req.Thinking.Level, modelCap.MaxThinkingBudget),
				IncludeThoughts: req.Thinking.IncludeSummary,
			}
			hasGenConfig = true
		}
	}
	if hasGenConfig {
		wire.GenerationConfig = genConfig
	}

	return json.Marshal(wire)
}

// thinkingBudget maps the opaque core thinking level to Gemini's
// thinkingBudget knob, capped at maxBudget, the model's capability ceiling.
func thinkingBudget(level model.ThinkingLevel, maxBudget int) int {
	budget := 0
	switch level {
	case model.ThinkingLow:
		budget = 2048
	case model.ThinkingMedium:
		budget = 8192
	case model.ThinkingHigh:
		budget = 24576
	}
	if maxBudget > 0 && budget > maxBudget {
		return maxBudget
	}
	return budget
}

func convertToolChoice(tc model.ToolChoice) *wireToolConfig {
	switch tc.Mode {
	case model.ToolChoiceNone:
		return &wireToolConfig{FunctionCallingConfig: wireFunctionCallingConfig{Mode: "NONE"}}
	case model.ToolChoiceRequired:
		return &wireToolConfig{FunctionCallingConfig: wireFunctionCallingConfig{Mode: "ANY"}}
	case model.ToolChoiceSpecific:
		return &wireToolConfig{FunctionCallingConfig: wireFunctionCallingConfig{Mode: "ANY", AllowedFunctionNames: []string{tc.ToolName}}}
	case model.ToolChoiceAuto:
		return &wireToolConfig{FunctionCallingConfig: wireFunctionCallingConfig{Mode: "AUTO"}}
	default:
		return nil
	}
}

func convertTools(tools []model.ToolDefinition) ([]wireTool, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	decls := make([]wireFunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		var params json.RawMessage
		if t.ParamsJSON != "" {
			if err := jsonvalidate.ValidateToolParamsJSON(t.ParamsJSON); err != nil {
				return nil, corerr.Wrap(model.ErrorInvalidArg, err, "invalid tool parameters JSON for tool "+t.Name)
			}
			params = json.RawMessage(t.ParamsJSON)
		}
		decls = append(decls, wireFunctionDeclaration{Name: t.Name, Description: t.Description, Parameters: params})
	}
	return []wireTool{{FunctionDeclarations: decls}}, nil
}

// convertMessage maps a normalized Message to Gemini's role ("user" / "model")
// and part vocabulary. Tool-result messages become a user-role
// functionResponse part since Gemini has no dedicated tool role.
func convertMessage(m model.Message) (wireContent, error) {
	role := "user"
	if m.Role == model.RoleAssistant {
		role = "model"
	}

	parts := make([]wirePart, 0, len(m.Content))
	for _, block := range m.Content {
		switch block.Kind {
		case model.ContentText:
			parts = append(parts, wirePart{Text: block.Text})
		case model.ContentToolCall:
			args := json.RawMessage(block.ToolArgsJSON)
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			parts = append(parts, wirePart{FunctionCall: &wireFunctionCall{Name: block.ToolName, Args: args}})
		case model.ContentToolResult:
			// functionResponse.name receives ToolResultForID, the tool-call
			// ID, as-is: a tool-result block carries no function name, so
			// the name Gemini correlates on is not available here.
			resp := json.RawMessage(`{"result":` + jsonQuote(block.ToolResultText) + `}`)
			parts = append(parts, wirePart{FunctionResponse: &wireFunctionResp{Name: block.ToolResultForID, Response: resp}})
		case model.ContentThinking:
			parts = append(parts, wirePart{Text: block.ThinkingText, Thought: true})
		case model.ContentRedactedThinking:
			// Gemini has no redacted-thinking wire representation; dropped.
		}
	}
	return wireContent{Role: role, Parts: parts}, nil
}

func jsonQuote(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}
