// Package openai implements the OpenAI-style provider: the
// Chat Completions wire protocol, its delta-JSON-per-SSE-data-line stream
// machine, and its request/response translation to and from the normalized
// core model.
package openai
