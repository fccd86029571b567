package gemini

import (
	"testing"

	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_MinimalTextCompletion(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte(`data: {"modelVersion":"gemini-2.5-flash"}` + "\n\n"))
	sc.feed([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"Hello"}]}}]}` + "\n\n"))
	sc.feed([]byte(`data: {"candidates":[{"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15}}` + "\n\n"))

	require.Len(t, events, 3)
	assert.Equal(t, model.StreamStart, events[0].Kind)
	assert.Equal(t, "gemini-2.5-flash", events[0].Model)
	assert.Equal(t, model.StreamTextDelta, events[1].Kind)
	assert.Equal(t, "Hello", events[1].Delta)
	assert.Equal(t, model.StreamDone, events[2].Kind)
	assert.Equal(t, model.FinishStop, events[2].FinishReason)
	assert.Equal(t, model.Usage{InputTokens: 10, OutputTokens: 5, ThinkingTokens: 0, TotalTokens: 15}, events[2].Usage)
}

func TestStream_FunctionCallOpensAndClosesOnText(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte(`data: {"candidates":[{"content":{"parts":[{"functionCall":{"name":"get_weather","args":{"location":"NYC"}}}]}}]}` + "\n\n"))
	sc.feed([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"done"}]}}]}` + "\n\n"))

	require.Len(t, events, 4)
	assert.Equal(t, model.StreamToolCallStart, events[0].Kind)
	assert.NotEmpty(t, events[0].ToolCallID)
	assert.Len(t, events[0].ToolCallID, 22)
	assert.Equal(t, model.StreamToolCallDelta, events[1].Kind)
	assert.Equal(t, model.StreamToolCallDone, events[2].Kind)
	assert.Equal(t, model.StreamTextDelta, events[3].Kind)
}

func TestStream_ThinkingClosesOpenToolCall(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte(`data: {"candidates":[{"content":{"parts":[{"functionCall":{"name":"f"}}]}}]}` + "\n\n"))
	sc.feed([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"pondering","thought":true}]}}]}` + "\n\n"))

	require.Len(t, events, 4)
	assert.Equal(t, model.StreamToolCallDone, events[2].Kind)
	assert.Equal(t, model.StreamThinkingDelta, events[3].Kind)
}

func TestStream_OutputExcludesThinkingTokens(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte(`data: {"usageMetadata":{"promptTokenCount":100,"candidatesTokenCount":50,"thoughtsTokenCount":20,"totalTokenCount":170}}` + "\n\n"))

	require.Len(t, events, 1)
	assert.Equal(t, 30, events[0].Usage.OutputTokens)
	assert.Equal(t, 20, events[0].Usage.ThinkingTokens)
}

func TestStream_TopLevelErrorIsTerminal(t *testing.T) {
	var events []model.StreamEvent
	sc := newStreamContext(func(e model.StreamEvent) { events = append(events, e) })

	sc.feed([]byte(`data: {"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"slow down"}}` + "\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, model.StreamError, events[0].Kind)
	assert.Equal(t, model.ErrorRateLimit, events[0].ErrorCategory)
}
