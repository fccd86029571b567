package anthropic

import (
	"encoding/json"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/sse"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
)

// streamContext is the per-stream state for Anthropic's named-SSE-event
// protocol.
type streamContext struct {
	onEvent providers.StreamCallback

	parser *sse.Parser

	model        string
	startEmitted bool
	finishReason model.FinishReason
	usage        model.Usage

	openIndex int
	openKind  string // "text" | "tool_use" | "thinking" | "redacted_thinking" | ""

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
		sc.dispatch(event)
	}
}

type wireMessageStart struct {
	Message struct {
		Model string    `json:"model"`
		Usage wireUsage `json:"usage"`
	} `json:"message"`
}

type wireContentBlockStart struct {
	Index        int              `json:"index"`
	ContentBlock wireContentBlock `json:"content_block"`
}

type wireContentBlockDelta struct {
	Index int `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		Thinking    string `json:"thinking"`
		Signature   string `json:"signature"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
}

type wireMessageDelta struct {
	Delta struct {
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage wireUsage `json:"usage"`
}

func (sc *streamContext) dispatch(event sse.Event) {
	raw := []byte(event.DataOrEmpty())

	var asObject map[string]json.RawMessage
	if len(raw) > 0 {
		var anyValue any
		if err := json.Unmarshal(raw, &anyValue); err != nil {
			sc.emitErrorAndTerminate(model.ErrorUnknown, "Invalid JSON in SSE event")
			return
		}
		if _, ok := anyValue.(map[string]any); !ok {
			sc.emitErrorAndTerminate(model.ErrorUnknown, "SSE event data is not a JSON object")
			return
		}
		_ = json.Unmarshal(raw, &asObject)
	}

	switch event.Type {
	case "message_start":
		var payload wireMessageStart
		_ = json.Unmarshal(raw, &payload)
		sc.model = payload.Message.Model
		sc.usage = usageFromWire(payload.Message.Usage)
		sc.emitStartIfNeeded()

	case "content_block_start":
		var payload wireContentBlockStart
		_ = json.Unmarshal(raw, &payload)
		sc.openIndex = payload.Index
		sc.openKind = payload.ContentBlock.Type
		if payload.ContentBlock.Type == "tool_use" {
			sc.emit(model.StreamEvent{Kind: model.StreamToolCallStart, Index: payload.Index, ToolCallID: payload.ContentBlock.ID, ToolName: payload.ContentBlock.Name})
		}

	case "content_block_delta":
		var payload wireContentBlockDelta
		_ = json.Unmarshal(raw, &payload)
		switch payload.Delta.Type {
		case "text_delta":
			sc.emit(model.StreamEvent{Kind: model.StreamTextDelta, Index: payload.Index, Delta: payload.Delta.Text})
		case "thinking_delta":
			sc.emit(model.StreamEvent{Kind: model.StreamThinkingDelta, Index: payload.Index, Delta: payload.Delta.Thinking})
		case "signature_delta":
			// no event; the signature is not kept by this stream context.
		case "input_json_delta":
			sc.emit(model.StreamEvent{Kind: model.StreamToolCallDelta, Index: payload.Index, ArgsDelta: payload.Delta.PartialJSON})
		}

	case "content_block_stop":
		if sc.openKind == "tool_use" {
			sc.emit(model.StreamEvent{Kind: model.StreamToolCallDone, Index: sc.openIndex})
		}
		sc.openKind = ""

	case "message_delta":
		var payload wireMessageDelta
		_ = json.Unmarshal(raw, &payload)
		sc.finishReason = mapFinishReason(payload.Delta.StopReason)
		if payload.Usage.OutputTokens != 0 || payload.Usage.InputTokens != 0 {
			sc.usage = usageFromWire(payload.Usage)
		}

	case "message_stop":
		sc.emit(model.StreamEvent{Kind: model.StreamDone, FinishReason: sc.finishReason, Usage: sc.usage})
		sc.terminal = true

	case "ping":
		// ignore

	case "error":
		sc.handleErrorEvent(asObject, raw)

	default:
		// unknown event type: ignore silently
	}
}

// handleErrorEvent implements the resolved "prefer nested error.type" open
// question: some transports emit a top-level type alongside a nested error
// object; the nested object always wins when both are present.
func (sc *streamContext) handleErrorEvent(asObject map[string]json.RawMessage, raw []byte) {
	if nested, ok := asObject["error"]; ok {
		var e wireError
		if err := json.Unmarshal(nested, &e); err == nil {
			category, ok := corerr.BodyErrorType(e.Type)
			if !ok {
				category = model.ErrorUnknown
			}
			sc.emit(model.StreamEvent{Kind: model.StreamError, ErrorCategory: category, ErrorMessage: e.Message})
			sc.terminal = true
			return
		}
	}
	sc.emitErrorAndTerminate(model.ErrorUnknown, "Invalid JSON in SSE event")
}

func (sc *streamContext) emitErrorAndTerminate(category model.ErrorCategory, message string) {
	sc.emit(model.StreamEvent{Kind: model.StreamError, ErrorCategory: category, ErrorMessage: message})
	sc.terminal = true
}

func (sc *streamContext) emitStartIfNeeded() {
	if sc.startEmitted {
		return
	}
	sc.startEmitted = true
	sc.emit(model.StreamEvent{Kind: model.StreamStart, Model: sc.model})
}

func (sc *streamContext) emit(e model.StreamEvent) {
	if sc.onEvent != nil {
		sc.onEvent(e)
	}
}

func usageFromWire(u wireUsage) model.Usage {
	return model.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		CachedTokens: u.CacheReadInputTokens,
		TotalTokens:  u.InputTokens + u.OutputTokens,
	}
}

func (sc *streamContext) finalResponse() *model.Response {
	return &model.Response{FinishReason: sc.finishReason, Usage: sc.usage, Model: sc.model}
}
