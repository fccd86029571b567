package openai

import (
	"encoding/json"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/sse"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
)

// streamContext is the per-stream state for OpenAI's delta-JSON-per-line
// protocol.
type streamContext struct {
	onEvent providers.StreamCallback

	parser *sse.Parser

	model        string
	startEmitted bool
	finishReason model.FinishReason
	usage        model.Usage

	openIndex   int
	toolOpen    bool

	terminal bool
	aborted  bool
}

func newStreamContext(onEvent providers.StreamCallback) *streamContext {
	return &streamContext{
		onEvent: onEvent,
		parser:  sse.NewParser(),
	}
}

func (sc *streamContext) feed(chunk []byte) {
	sc.parser.Feed(chunk)
	for {
		event, ok := sc.parser.Next()
		if !ok {
			return
		}
		if sc.terminal {
			continue
		}
		sc.processEvent(event)
	}
}

type wireDeltaChunk struct {
	Model   string `json:"model"`
	Usage   *wireUsage `json:"usage"`
	Choices []wireDeltaChoice `json:"choices"`
	Error   *wireError `json:"error"`
}

type wireDeltaChoice struct {
	Delta        wireDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
}

type wireDelta struct {
	Role      string           `json:"role"`
	Content   *string          `json:"content"`
	ToolCalls []wireDeltaTool  `json:"tool_calls"`
}

type wireDeltaTool struct {
	Index    int                   `json:"index"`
	ID       *string               `json:"id"`
	Function wireDeltaToolFunction `json:"function"`
}

type wireDeltaToolFunction struct {
	Name      *string `json:"name"`
	Arguments *string `json:"arguments"`
}

func (sc *streamContext) processEvent(event sse.Event) {
	if event.Data == nil {
		return
	}
	if event.IsDone() {
		sc.handleDone()
		return
	}

	var chunk wireDeltaChunk
	if err := json.Unmarshal([]byte(*event.Data), &chunk); err != nil {
		return // malformed payloads are tolerated silently
	}

	if chunk.Error != nil {
		sc.emitError(chunk.Error)
		return
	}

	if chunk.Model != "" {
		sc.model = chunk.Model
	}
	if chunk.Usage != nil {
		sc.usage = model.Usage{
			InputTokens:    chunk.Usage.PromptTokens,
			OutputTokens:   chunk.Usage.CompletionTokens,
			ThinkingTokens: chunk.Usage.CompletionTokensDetails.ReasoningTokens,
			CachedTokens:   chunk.Usage.PromptTokensDetails.CachedTokens,
			TotalTokens:    chunk.Usage.TotalTokens,
		}
	}

	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta.Content != nil && *choice.Delta.Content != "" {
		sc.emitStartIfNeeded()
		sc.emit(model.StreamEvent{Kind: model.StreamTextDelta, Delta: *choice.Delta.Content})
	}

	for _, tc := range choice.Delta.ToolCalls {
		sc.emitStartIfNeeded()
		if sc.toolOpen && sc.openIndex != tc.Index {
			sc.emit(model.StreamEvent{Kind: model.StreamToolCallDone, Index: sc.openIndex})
			sc.toolOpen = false
		}
		if tc.ID != nil || tc.Function.Name != nil {
			id, name := "", ""
			if tc.ID != nil {
				id = *tc.ID
			}
			if tc.Function.Name != nil {
				name = *tc.Function.Name
			}
			sc.emit(model.StreamEvent{Kind: model.StreamToolCallStart, Index: tc.Index, ToolCallID: id, ToolName: name})
			sc.openIndex = tc.Index
			sc.toolOpen = true
		}
		if tc.Function.Arguments != nil {
			sc.emit(model.StreamEvent{Kind: model.StreamToolCallDelta, Index: tc.Index, ArgsDelta: *tc.Function.Arguments})
		}
	}

	if choice.FinishReason != nil {
		sc.finishReason = mapFinishReason(*choice.FinishReason)
	}
}

func (sc *streamContext) emitStartIfNeeded() {
	if sc.startEmitted {
		return
	}
	sc.startEmitted = true
	sc.emit(model.StreamEvent{Kind: model.StreamStart, Model: sc.model})
}

func (sc *streamContext) handleDone() {
	if sc.toolOpen {
		sc.emit(model.StreamEvent{Kind: model.StreamToolCallDone, Index: sc.openIndex})
		sc.toolOpen = false
	}
	sc.emit(model.StreamEvent{Kind: model.StreamDone, FinishReason: sc.finishReason, Usage: sc.usage})
	sc.terminal = true
}

func (sc *streamContext) emitError(e *wireError) {
	category, ok := corerr.BodyErrorType(e.Type)
	if !ok {
		category = mapErrorType(e.Type)
	}
	sc.emit(model.StreamEvent{Kind: model.StreamError, ErrorCategory: category, ErrorMessage: e.Message})
	sc.terminal = true
}

func (sc *streamContext) emit(e model.StreamEvent) {
	if sc.onEvent != nil {
		sc.onEvent(e)
	}
}

// finalResponse synthesizes a normalized Response once the transfer's HTTP
// completion arrives successfully; StartStream's caller still receives a
// completion callback even though all content was already delivered via
// stream events.
func (sc *streamContext) finalResponse() *model.Response {
	return &model.Response{
		FinishReason: sc.finishReason,
		Usage:        sc.usage,
		Model:        sc.model,
	}
}
