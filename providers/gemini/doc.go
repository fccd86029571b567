// Package gemini implements the Gemini-style provider: the
// whole-JSON-per-chunk wire protocol with no explicit terminator, its
// stream machine that infers termination from usageMetadata, synthetic
// tool-call identifier generation, and request/response translation to and
// from the normalized core model.
package gemini
