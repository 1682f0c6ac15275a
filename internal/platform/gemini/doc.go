// Package gemini adapts Google's Gemini API to the generation.Generator and
// embedding.Embedder interfaces.
//
// Every request passes through a shared rate limiter and is retried with
// jittered exponential backoff when the failure is transient (rate limiting,
// server errors, timeouts). Generation prompts are text templates embedded
// in the binary and ask the model for JSON, which is parsed into the
// generation package's types. Malformed or blocked responses are permanent
// failures and are reported as generation.ErrInvalidResponse or
// generation.ErrContentBlocked.
package gemini
