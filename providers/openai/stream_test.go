package openai

import (
	"testing"

	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_MinimalTextCompletion(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte("data: {\"model\":\"gpt-4\",\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n"))
	sc.feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n"))
	sc.feed([]byte("data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n"))
	sc.feed([]byte("data: [DONE]\n\n"))

	require.Len(t, events, 3)
	assert.Equal(t, model.StreamStart, events[0].Kind)
	assert.Equal(t, "gpt-4", events[0].Model)
	assert.Equal(t, model.StreamTextDelta, events[1].Kind)
	assert.Equal(t, "Hi", events[1].Delta)
	assert.Equal(t, model.StreamDone, events[2].Kind)
	assert.Equal(t, model.FinishStop, events[2].FinishReason)
}

func TestStream_ToolCallAcrossDeltas(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":""}}]}}]}` + "\n\n"))
	sc.feed([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"loc"}}]}}]}` + "\n\n"))
	sc.feed([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"ation\":\"NYC\"}"}}]}}]}` + "\n\n"))
	sc.feed([]byte(`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}` + "\n\n"))
	sc.feed([]byte("data: [DONE]\n\n"))

	var kinds []model.StreamEventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []model.StreamEventKind{
		model.StreamStart,
		model.StreamToolCallStart,
		model.StreamToolCallDelta, // empty "arguments" on the opening chunk
		model.StreamToolCallDelta,
		model.StreamToolCallDelta,
		model.StreamToolCallDone,
		model.StreamDone,
	}, kinds)
	assert.Equal(t, model.FinishToolUse, events[len(events)-1].FinishReason)
}

func TestStream_TopLevelErrorIsTerminal(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte(`data: {"error":{"type":"invalid_request_error","message":"bad request"}}` + "\n\n"))
	sc.feed([]byte("data: [DONE]\n\n")) // ignored: stream already terminal

	require.Len(t, events, 1)
	assert.Equal(t, model.StreamError, events[0].Kind)
	assert.Equal(t, model.ErrorInvalidArg, events[0].ErrorCategory)
}

func TestStream_MalformedPayloadToleratedSilently(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte("data: not json\n\n"))
	sc.feed([]byte(`data: {"choices":[{"delta":{"content":"ok"}}]}` + "\n\n"))

	require.Len(t, events, 2) // start + text-delta, garbage dropped
	assert.Equal(t, model.StreamTextDelta, events[1].Kind)
}
