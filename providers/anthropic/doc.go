// Package anthropic implements the Anthropic-style provider: the
// Messages API's named-SSE-event wire protocol, its event-typed stream
// machine, and its request/response translation to and from the normalized
// core model.
package anthropic
