package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"ytsummarize/internal/services/retry"
)

type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func newGeminiClient(ctx context.Context, cfg Config, httpClient *http.Client) (*geminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &geminiClient{client: client, model: cfg.Model, maxTokens: int32(cfg.MaxTokens)}, nil
}

func (c *geminiClient) Provider() string { return ProviderGemini }

func (c *geminiClient) SupportsSchema() bool { return true }

func (c *geminiClient) Complete(ctx context.Context, req Request) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: c.maxTokens,
	}
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = req.Schema.Definition
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.UserPrompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &retry.StatusError{Provider: ProviderGemini, StatusCode: apiErr.Code, Body: summarizePayloadSnippet(apiErr.Message)}
		}
		return "", fmt.Errorf("gemini request: %w", err)
	}
	return resp.Text(), nil
}
