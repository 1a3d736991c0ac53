// Package evalengine generates interview questions and scores complete
// interview transcripts through a pluggable model backend. One engine is
// selected at startup from configuration: OpenRouter chat completions,
// the Gemini API, or a deterministic mock for development and tests.
//
// Evaluation is batched: the entire ordered answer set is scored in a single
// model call, producing per-question verdicts keyed by question id plus one
// interview-level final assessment.
package evalengine
