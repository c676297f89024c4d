// Package llm provides the chat collaborator used to summarize transcripts.
//
// # Providers
//
// NewClient selects one of four backends from Config.Provider:
//   - openai: go-openai chat completions, json_schema response format
//   - gemini: genai GenerateContent with ResponseJsonSchema
//   - openrouter: OpenAI-compatible HTTP client, json_schema response format
//   - anthropic: Messages API, no schema mode (prompt-only JSON)
//
// SupportsSchema tells callers whether Request.Schema is enforced by the
// provider or must be recovered with DecodeLLMJSON.
//
// # Retry Behaviour
//
// Every client returned by NewClient is wrapped with the shared retry
// policy: HTTP 408/409/429/5xx, network errors, and empty completions are
// retried with exponential backoff; 400/401/403/404/422 fail immediately.
package llm
