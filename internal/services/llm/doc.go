// Package llm provides an OpenRouter-compatible chat completion client.
//
// The language-quality judge uses it to ask a hosted model how natural a
// recognized line of text reads. Responses are plain text; callers parse what
// they need out of the returned content.
//
// # Configuration
//
// Requires api_key and model; base_url defaults to the OpenRouter chat
// completions endpoint. Referer and title are forwarded as the attribution
// headers OpenRouter expects.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the first choice's text.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, up to 3 attempts by
// default). Context cancellation aborts retries immediately.
package llm
