// Package model defines the provider-agnostic request/response types shared
// by every provider package: messages, content blocks, tool definitions,
// usage counters, finish reasons, and streaming events. Provider packages
// translate between these types and their own wire formats; nothing in this
// package knows about HTTP, SSE, or any specific provider.
package model

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentKind discriminates the payload carried by a ContentBlock.
type ContentKind string

const (
	ContentText             ContentKind = "text"
	ContentToolCall         ContentKind = "tool-call"
	ContentToolResult       ContentKind = "tool-result"
	ContentThinking         ContentKind = "thinking"
	ContentRedactedThinking ContentKind = "redacted-thinking"
)

// ContentBlock is a tagged union over the five content kinds a message can
// carry. Exactly one payload group is populated, selected by Kind.
type ContentBlock struct {
	Kind ContentKind

	// Kind == ContentText
	Text string

	// Kind == ContentToolCall
	ToolCallID   string
	ToolName     string
	ToolArgsJSON string // raw JSON text, not a parsed value

	// Kind == ContentToolResult
	ToolResultForID string
	ToolResultText  string
	ToolResultError bool

	// Kind == ContentThinking
	ThinkingText      string
	ThinkingSignature string // provider-opaque, required to round-trip on a later turn

	// Kind == ContentRedactedThinking
	RedactedData string // opaque base64, round-tripped unchanged
}

// TextBlock constructs a ContentText block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Kind: ContentText, Text: text}
}

// ToolCallBlock constructs a ContentToolCall block.
func ToolCallBlock(id, name, argsJSON string) ContentBlock {
	return ContentBlock{Kind: ContentToolCall, ToolCallID: id, ToolName: name, ToolArgsJSON: argsJSON}
}

// ToolResultBlock constructs a ContentToolResult block.
func ToolResultBlock(forID, text string, isError bool) ContentBlock {
	return ContentBlock{Kind: ContentToolResult, ToolResultForID: forID, ToolResultText: text, ToolResultError: isError}
}

// ThinkingBlock constructs a ContentThinking block.
func ThinkingBlock(summary, signature string) ContentBlock {
	return ContentBlock{Kind: ContentThinking, ThinkingText: summary, ThinkingSignature: signature}
}

// RedactedThinkingBlock constructs a ContentRedactedThinking block.
func RedactedThinkingBlock(data string) ContentBlock {
	return ContentBlock{Kind: ContentRedactedThinking, RedactedData: data}
}

// Message is a single conversation turn: a role and an ordered sequence of
// content blocks. ProviderMetadata is an opaque string a provider's parser
// may stash (e.g. a raw response id) for round-tripping on a later turn.
type Message struct {
	Role             Role
	Content          []ContentBlock
	ProviderMetadata string
}

// ThinkingLevel is an opaque-to-the-core reasoning effort knob; each
// provider's serializer maps it to its own representation.
type ThinkingLevel string

const (
	ThinkingNone   ThinkingLevel = "none"
	ThinkingLow    ThinkingLevel = "low"
	ThinkingMedium ThinkingLevel = "medium"
	ThinkingHigh   ThinkingLevel = "high"
)

// ThinkingConfig controls reasoning output.
type ThinkingConfig struct {
	Level          ThinkingLevel
	IncludeSummary bool
}

// ToolDefinition describes a function the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	ParamsJSON  string // JSON-schema text, opaque to the core
	Strict      bool
}

// ToolChoiceMode selects how the model should pick among declared tools.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceSpecific ToolChoiceMode = "specific"
)

// ToolChoice pairs a mode with the specific tool name when Mode ==
// ToolChoiceSpecific.
type ToolChoice struct {
	Mode       ToolChoiceMode
	ToolName   string // only meaningful when Mode == ToolChoiceSpecific
}

// Request is the normalized form of a single chat completion call.
type Request struct {
	SystemPrompt    string
	Messages        []Message
	Model           string
	Thinking        ThinkingConfig
	Tools           []ToolDefinition
	MaxOutputTokens int
	ToolChoice      ToolChoice
}

// Usage reports token consumption. All five counters are zero-initialized;
// providers populate only the ones they support. Gemini's OutputTokens is
// candidatesTokenCount minus thoughtsTokenCount, passed through unclamped,
// so it is negative when those two fields are inconsistent.
type Usage struct {
	InputTokens    int
	OutputTokens   int
	ThinkingTokens int
	CachedTokens   int
	TotalTokens    int
}

// FinishReason is the normalized terminal state of a generation.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolUse       FinishReason = "tool-use"
	FinishContentFilter FinishReason = "content-filter"
	FinishError         FinishReason = "error"
	FinishUnknown       FinishReason = "unknown"
)

// Response is the normalized form of a completed (non-streaming) chat
// completion.
type Response struct {
	Content          []ContentBlock
	FinishReason     FinishReason
	Usage            Usage
	Model            string
	ProviderMetadata string // opaque provider JSON, when present
}
