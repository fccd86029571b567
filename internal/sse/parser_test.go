package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_RoundTrip(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("data: hello\n\n"))

	event, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "", event.Type)
	require.NotNil(t, event.Data)
	assert.Equal(t, "hello", *event.Data)
	assert.False(t, event.IsDone())

	_, ok = p.Next()
	assert.False(t, ok)
}

func TestParser_MultiLineData(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("data: a\ndata: b\ndata: c\n\n"))

	event, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "a\nb\nc", event.DataOrEmpty())
}

func TestParser_DoneMarker(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("data: [DONE]\n\n"))

	event, ok := p.Next()
	require.True(t, ok)
	assert.True(t, event.IsDone())
}

func TestParser_EventType(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("event: message_stop\ndata: {}\n\n"))

	event, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "message_stop", event.Type)
}

func TestParser_BareDataLineIsPresentButEmpty(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("data:\n\n"))

	event, ok := p.Next()
	require.True(t, ok)
	require.NotNil(t, event.Data)
	assert.Equal(t, "", *event.Data)
}

func TestParser_NoDataLineYieldsNilData(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("event: ping\n\n"))

	event, ok := p.Next()
	require.True(t, ok)
	assert.Nil(t, event.Data)
}

func TestParser_CommentLinesIgnored(t *testing.T) {
	p := NewParser()
	p.Feed([]byte(": keep-alive\ndata: hi\n\n"))

	event, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "hi", event.DataOrEmpty())
}

func TestParser_DelimiterPreference_EarlierWins(t *testing.T) {
	// "\n\n" at index 6 comes before "\r\n\r\n" at a later index: the LF form
	// must win even though the CRLF form is the "longer" delimiter.
	p := NewParser()
	p.Feed([]byte("data:a\n\ndata:b\r\n\r\n"))

	first, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "a", first.DataOrEmpty())

	second, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "b", second.DataOrEmpty())
}

func TestParser_DelimiterPreference_CRLFOnlyTerminator(t *testing.T) {
	// Buffer "data:a\r\n\r\n" holds no "\n\n" (its newlines are separated by
	// "\r"), so the CRLF form is the only terminator found and must be used.
	// The two forms begin with different bytes and so never start at the
	// same index; Next breaks such a tie toward the 2-byte form.
	p := NewParser()
	p.Feed([]byte("data:a\r\n\r\n"))

	event, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "a", event.DataOrEmpty())
}

func TestParser_FeedEmptyIsNoop(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("data: x\n\n"))
	lenBefore := len(p.buf)
	p.Feed(nil)
	assert.Equal(t, lenBefore, len(p.buf))
}

func TestParser_BufferGrowthBound(t *testing.T) {
	p := NewParser()
	n := 10000
	data := make([]byte, n)
	for i := range data {
		data[i] = 'x'
	}
	p.Feed(data)

	maxAllowed := 2 * max(initialBufferSize, n+1)
	assert.LessOrEqual(t, p.Cap(), maxAllowed)
}


func TestParser_FeedOneByteAtATimeMatchesWholeFeed(t *testing.T) {
	payload := []byte("event: foo\ndata: line1\ndata: line2\n\ndata: [DONE]\n\n")

	whole := NewParser()
	whole.Feed(payload)
	var wholeEvents []Event
	for {
		e, ok := whole.Next()
		if !ok {
			break
		}
		wholeEvents = append(wholeEvents, e)
	}

	byByte := NewParser()
	var byByteEvents []Event
	for i := range payload {
		byByte.Feed(payload[i : i+1])
		for {
			e, ok := byByte.Next()
			if !ok {
				break
			}
			byByteEvents = append(byByteEvents, e)
		}
	}

	require.Equal(t, len(wholeEvents), len(byByteEvents))
	for i := range wholeEvents {
		assert.Equal(t, wholeEvents[i].Type, byByteEvents[i].Type)
		assert.Equal(t, wholeEvents[i].DataOrEmpty(), byByteEvents[i].DataOrEmpty())
	}
}
