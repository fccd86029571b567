// Package providers defines the dispatch-table contract every provider
// package (openai, anthropic, gemini) implements, plus the model-name-prefix
// inference helper that picks a provider for a given model identifier. The
// dispatch table is the only polymorphic surface callers see; nothing here
// knows a provider's wire format.
package providers

import (
	"context"
	"strings"

	"github.com/mgreenly/ikigai-sub010/model"
)

// StreamCallback receives one normalized event at a time, in emission order,
// from inside Perform or InfoRead. It must not block.
type StreamCallback func(model.StreamEvent)

// CompletionCallback fires exactly once per enqueued request (unless
// Cleanup cancels the transfer first), from inside InfoRead. Cancel does not
// suppress it.
type CompletionCallback func(*model.Response, error)

// Provider is the polymorphic dispatch table every backing LLM service
// implements. A provider value owns its own HTTP multiplex handle and
// serializes at most one active stream at a time; callers never reach into
// provider-specific state.
type Provider interface {
	// StartRequest enqueues a non-streaming request. It never blocks;
	// validation failures (e.g. a missing model, malformed tool-params JSON)
	// surface synchronously as a returned error and no callback fires.
	StartRequest(ctx context.Context, req model.Request, onComplete CompletionCallback) error

	// StartStream enqueues a streaming request under the same validation and
	// non-blocking contract as StartRequest.
	StartStream(ctx context.Context, req model.Request, onEvent StreamCallback, onComplete CompletionCallback) error

	// FDSet merges the provider's underlying multiplex wakeup descriptor into
	// readFDs, returning -1 when there is no active transfer.
	FDSet(readFDs map[int]struct{}) (maxFD int)

	// Timeout reports how long the caller may sleep before calling Perform
	// again; -1 means no hint (may wait indefinitely).
	Timeout() (ms int)

	// Perform progresses all in-flight transfers by one round and returns the
	// count still running.
	Perform() (stillRunning int, err error)

	// InfoRead harvests every transfer that finished since the last call,
	// invoking stream and completion callbacks synchronously.
	InfoRead()

	// Cancel marks the provider's active stream, if any, as aborted: no
	// further stream events are forwarded. A completion callback may still
	// fire once.
	Cancel()

	// Cleanup is an idempotent teardown hook releasing the provider's
	// multiplex resources (e.g. its self-pipe descriptors).
	Cleanup() error
}

// Name identifies one of the three backing LLM services.
type Name string

const (
	OpenAI    Name = "openai"
	Anthropic Name = "anthropic"
	Gemini    Name = "gemini"
)

// InferProvider maps a model identifier to a provider by prefix. Matching is
// case-sensitive; an unrecognized prefix yields ("", false).
func InferProvider(modelName string) (Name, bool) {
	switch {
	case strings.HasPrefix(modelName, "gpt-"),
		strings.HasPrefix(modelName, "o1-"),
		strings.HasPrefix(modelName, "o3-"),
		modelName == "o3":
		return OpenAI, true
	case strings.HasPrefix(modelName, "claude-"):
		return Anthropic, true
	case strings.HasPrefix(modelName, "gemini-"):
		return Gemini, true
	default:
		return "", false
	}
}
