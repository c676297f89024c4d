// Package stt transcribes downloaded audio with the OpenAI speech-to-text API.
package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ytsummarize/internal/services"
	"ytsummarize/internal/services/retry"
)

// MaxFileBytes is the upload ceiling enforced by the transcription endpoint.
const MaxFileBytes = 25 * 1024 * 1024

// DefaultModel is used when no transcription model is configured.
const DefaultModel = "gpt-4o-mini-transcribe"

var supportedExtensions = map[string]struct{}{
	".mp3":  {},
	".mp4":  {},
	".mpeg": {},
	".mpga": {},
	".m4a":  {},
	".wav":  {},
	".webm": {},
}

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path, model, langHint string) (string, error)
}

// Config captures transcription endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client calls the OpenAI transcription endpoint.
type Client struct {
	client *openai.Client
	policy retry.Policy
}

// Option customizes the client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	policy     retry.Policy
}

// WithHTTPClient overrides the HTTP client (primarily for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(o *clientOptions) {
		o.policy = policy
	}
}

// New constructs a transcription client.
func New(cfg Config, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "new client", "api key required", nil)
	}
	o := clientOptions{policy: retry.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		timeout := 10 * time.Minute
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		o.httpClient = &http.Client{Timeout: timeout}
	}
	oc := openai.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = base
	}
	oc.HTTPClient = o.httpClient
	return &Client{client: openai.NewClientWithConfig(oc), policy: o.policy}, nil
}

// CheckFile reports whether path can be uploaded for transcription.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrTranscription, "transcription", "check file", "audio file not found: "+path, nil)
		}
		return services.Wrap(services.ErrTranscription, "transcription", "check file", "stat audio file", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedExtensions[ext]; !ok {
		return services.Wrap(services.ErrTranscription, "transcription", "check file",
			fmt.Sprintf("unsupported audio format %q", ext), nil)
	}
	if info.Size() > MaxFileBytes {
		return services.Wrap(services.ErrTranscription, "transcription", "check file",
			fmt.Sprintf("audio file too large (%.1f MB > 25 MB)", float64(info.Size())/(1024*1024)), nil)
	}
	return nil
}

// Transcribe uploads the audio file and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, path, model, langHint string) (string, error) {
	if err := CheckFile(path); err != nil {
		return "", err
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	req := openai.AudioRequest{
		Model:    model,
		FilePath: path,
		Format:   openai.AudioResponseFormatJSON,
	}
	if lang := strings.TrimSpace(langHint); lang != "" && lang != "auto" {
		req.Language = lang
	}

	var text string
	err := c.policy.Do(ctx, "transcription", func(ctx context.Context) error {
		resp, err := c.client.CreateTranscription(ctx, req)
		if err != nil {
			return mapError(err)
		}
		if strings.TrimSpace(resp.Text) == "" {
			return &retry.EmptyResponseError{Op: "transcription"}
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return "", services.Wrap(services.ErrTranscription, "transcription", model,
				fmt.Sprintf("transcription failed after %d attempts", exhausted.Attempts), exhausted.Err)
		}
		return "", services.Wrap(services.ErrTranscription, "transcription", model, "request failed", err)
	}
	return text, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &retry.StatusError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &retry.StatusError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	}
	return err
}
