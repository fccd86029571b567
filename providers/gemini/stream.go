package gemini

import (
	"encoding/json"

	"github.com/mgreenly/ikigai-sub010/internal/sse"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
)

// streamContext is the per-stream state for Gemini's whole-JSON-per-chunk
// protocol, which has no explicit terminator and a single implicit
// open-tool-call slot (the resolved reading of the provider's ambiguous
// multi-tool-call signal).
type streamContext struct {
	onEvent providers.StreamCallback

	parser *sse.Parser

	modelVersion string
	startEmitted bool
	finishReason model.FinishReason

	toolOpen  bool
	toolIndex int

	lastUsage model.Usage

	terminal bool
	aborted  bool
}

func newStreamContext(onEvent providers.StreamCallback) *streamContext {
	return &streamContext{onEvent: onEvent, parser: sse.NewParser()}
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
		sc.processPayload(event.DataOrEmpty())
	}
}

func (sc *streamContext) processPayload(raw string) {
	if raw == "" {
		return
	}

	var envelope wireErrorEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil && envelope.Error != nil {
		category := mapErrorStatus(envelope.Error.Status)
		sc.emit(model.StreamEvent{Kind: model.StreamError, ErrorCategory: category, ErrorMessage: envelope.Error.Message})
		sc.terminal = true
		return
	}

	var chunk wireResponse
	if err := json.Unmarshal([]byte(raw), &chunk); err != nil {
		return // malformed payloads are tolerated silently
	}

	if chunk.ModelVersion != "" && !sc.startEmitted {
		sc.modelVersion = chunk.ModelVersion
		sc.startEmitted = true
		sc.emit(model.StreamEvent{Kind: model.StreamStart, Model: sc.modelVersion})
	}

	var candidate *wireCandidate
	if len(chunk.Candidates) > 0 {
		candidate = &chunk.Candidates[0]
		for _, part := range candidate.Content.Parts {
			sc.processPart(part)
		}
		if candidate.FinishReason != "" {
			sc.finishReason = mapFinishReason(candidate.FinishReason)
		}
	}

	if chunk.UsageMetadata != nil {
		sc.handleUsage(chunk.UsageMetadata)
	}
}

func (sc *streamContext) processPart(part wirePart) {
	switch {
	case part.FunctionCall != nil:
		id, err := newToolCallID()
		if err != nil {
			sc.emit(model.StreamEvent{Kind: model.StreamError, ErrorCategory: model.ErrorUnknown, ErrorMessage: "failed to generate tool call id"})
			sc.terminal = true
			return
		}
		sc.emit(model.StreamEvent{Kind: model.StreamToolCallStart, ToolCallID: id, ToolName: part.FunctionCall.Name})
		args := "{}"
		if len(part.FunctionCall.Args) > 0 {
			args = string(part.FunctionCall.Args)
		}
		sc.emit(model.StreamEvent{Kind: model.StreamToolCallDelta, ArgsDelta: args})
		sc.toolOpen = true

	case part.Text != "" && part.Thought:
		sc.closeOpenToolCall()
		sc.emit(model.StreamEvent{Kind: model.StreamThinkingDelta, Delta: part.Text})

	case part.Text != "":
		sc.closeOpenToolCall()
		sc.emit(model.StreamEvent{Kind: model.StreamTextDelta, Delta: part.Text})
	}
}

func (sc *streamContext) closeOpenToolCall() {
	if sc.toolOpen {
		sc.emit(model.StreamEvent{Kind: model.StreamToolCallDone, Index: sc.toolIndex})
		sc.toolOpen = false
	}
}

func (sc *streamContext) handleUsage(u *wireUsageMetadata) {
	sc.closeOpenToolCall()
	thinking := u.ThoughtsTokenCount
	usage := model.Usage{
		InputTokens:    u.PromptTokenCount,
		OutputTokens:   u.CandidatesTokenCount - thinking,
		ThinkingTokens: thinking,
		TotalTokens:    u.TotalTokenCount,
	}
	sc.emit(model.StreamEvent{Kind: model.StreamDone, FinishReason: sc.finishReason, Usage: usage})
	sc.terminal = true
	sc.lastUsage = usage
}

func (sc *streamContext) emit(e model.StreamEvent) {
	if sc.onEvent != nil {
		sc.onEvent(e)
	}
}

func (sc *streamContext) finalResponse() *model.Response {
	return &model.Response{FinishReason: sc.finishReason, Usage: sc.lastUsage, Model: sc.modelVersion}
}
