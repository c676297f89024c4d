package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
	"ytsummarize/internal/services/retry"
)

const defaultHTTPTimeout = 120 * time.Second

// Provider names accepted by NewClient.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Schema constrains a completion to a JSON document.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Request is a single system+user chat completion.
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	// Schema is honoured only by clients whose SupportsSchema reports true.
	Schema *Schema
}

// Client is the chat collaborator used by the summarizer.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	// SupportsSchema reports whether Request.Schema is enforced server-side.
	SupportsSchema() bool
	Provider() string
}

// Config captures the runtime settings required to talk to a chat provider.
type Config struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	TimeoutSeconds int
	Referer        string
	Title          string
}

type options struct {
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

// Option customizes client construction.
type Option func(*options)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy wrapped around every call.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewClient builds the provider named in cfg and wraps it with the retry policy.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (Client, error) {
	o := options{policy: retry.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		timeout := defaultHTTPTimeout
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		o.httpClient = &http.Client{Timeout: timeout}
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "llm", cfg.Provider, "api key required", nil)
	}

	var inner Client
	switch cfg.Provider {
	case ProviderOpenAI, "":
		inner = newOpenAIClient(cfg, o.httpClient)
	case ProviderAnthropic:
		inner = newAnthropicClient(cfg, o.httpClient)
	case ProviderGemini:
		client, err := newGeminiClient(ctx, cfg, o.httpClient)
		if err != nil {
			return nil, err
		}
		inner = client
	case ProviderOpenRouter:
		inner = newOpenRouterClient(cfg, o.httpClient)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "llm", "", fmt.Sprintf("unknown provider %q", cfg.Provider), nil)
	}

	policy := o.policy
	if policy.Logger == nil {
		policy.Logger = logging.NewComponentLogger(o.logger, "llm")
	}
	return WithRetry(inner, policy), nil
}

type retryingClient struct {
	inner  Client
	policy retry.Policy
}

// WithRetry wraps c so that transient failures and empty completions are
// retried under policy.
func WithRetry(c Client, policy retry.Policy) Client {
	return &retryingClient{inner: c, policy: policy}
}

func (r *retryingClient) Complete(ctx context.Context, req Request) (string, error) {
	op := r.inner.Provider() + " complete"
	var content string
	err := r.policy.Do(ctx, op, func(ctx context.Context) error {
		text, err := r.inner.Complete(ctx, req)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return &retry.EmptyResponseError{Op: op}
		}
		content = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (r *retryingClient) SupportsSchema() bool { return r.inner.SupportsSchema() }

func (r *retryingClient) Provider() string { return r.inner.Provider() }

// HealthCheck issues a tiny JSON request to verify the key and model are usable.
func HealthCheck(ctx context.Context, client Client, model string) error {
	content, err := client.Complete(ctx, Request{
		Model:        model,
		SystemPrompt: "You must respond with JSON only.",
		UserPrompt:   `Respond with {"ok":true}`,
	})
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("llm health: unexpected response")
	}
	return nil
}
