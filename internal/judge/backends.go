package judge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"scrollback/internal/config"
	"scrollback/internal/services/llm"
)

// Provider names accepted by New.
const (
	ProviderOllama     = "ollama"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// Config selects and configures a backend.
type Config struct {
	Provider       string
	Model          string
	BaseURL        string
	APIKey         string
	Referer        string
	Title          string
	TimeoutSeconds int
	MaxChars       int
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// New builds the judge for cfg.Provider.
func New(cfg Config) (*CompletionJudge, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("judge: model must not be empty")
	}
	var (
		completer Completer
		err       error
	)
	switch cfg.Provider {
	case ProviderOpenRouter:
		completer = newOpenRouter(cfg)
	case ProviderOpenAI:
		completer, err = newOpenAI(cfg)
	case ProviderOllama, "":
		cfg.Provider = ProviderOllama
		completer, err = newOllama(cfg)
	default:
		return nil, fmt.Errorf("judge: unsupported provider %q; supported: ollama, openai, openrouter", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewCompletionJudge(cfg.Provider, completer, cfg.MaxChars), nil
}

func newOpenRouter(cfg Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})
}

// openAICompleter talks to any OpenAI-compatible chat completions endpoint.
type openAICompleter struct {
	client oai.Client
	model  string
}

func newOpenAI(cfg Config) (*openAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("judge: openai provider requires an api key")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.timeout()}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openAICompleter{client: oai.NewClient(opts...), model: cfg.Model}, nil
}

func (c *openAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(userPrompt),
		},
		Temperature: param.NewOpt(0.0),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ollamaCompleter talks to a local Ollama server.
type ollamaCompleter struct {
	backend anyllmlib.Provider
	model   string
	timeout time.Duration
}

func newOllama(cfg Config) (*ollamaCompleter, error) {
	var opts []anyllmlib.Option
	if cfg.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(cfg.BaseURL))
	}
	backend, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("judge: create ollama backend: %w", err)
	}
	return &ollamaCompleter{backend: backend, model: cfg.Model, timeout: cfg.timeout()}, nil
}

func (c *ollamaCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := 0.0
	resp, err := c.backend.Completion(ctx, anyllmlib.CompletionParams{
		Model: c.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: systemPrompt},
			{Role: anyllmlib.RoleUser, Content: userPrompt},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("ollama: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ollama: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}

// FromConfig maps the [judge] configuration table onto a backend Config.
func FromConfig(c config.Judge) Config {
	return Config{
		Provider:       c.Provider,
		Model:          c.Model,
		BaseURL:        c.BaseURL,
		APIKey:         c.APIKey,
		Referer:        c.Referer,
		Title:          c.Title,
		TimeoutSeconds: c.TimeoutSeconds,
		MaxChars:       c.MaxChars,
	}
}
