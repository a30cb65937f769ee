// Package judge asks an external language model how natural a recognised
// string reads.
//
// The Judge interface is deliberately narrow: text and language in, a score in
// [0, 1] or an error out. Callers turn any error into NoScore and carry on
// with their own estimate. Three backends share one prompt: OpenRouter via
// internal/services/llm, any OpenAI-compatible endpoint via openai-go, and a
// local Ollama server via any-llm-go.
package judge
