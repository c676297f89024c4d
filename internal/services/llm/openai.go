package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ytsummarize/internal/services/retry"
)

type openAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func newOpenAIClient(cfg Config, httpClient *http.Client) *openAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = base
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	return &openAIClient{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *openAIClient) Provider() string { return ProviderOpenAI }

func (c *openAIClient) SupportsSchema() bool { return true }

func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxCompletionTokens: c.maxTokens,
	}
	// Reasoning models only accept their fixed default temperature.
	if !reasoningModel(model) {
		chatReq.Temperature = float32(req.Temperature)
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: req.Schema.Definition,
				Strict: true,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &retry.EmptyResponseError{Op: "openai complete", Detail: "no choices"}
	}
	msg := resp.Choices[0].Message
	if strings.TrimSpace(msg.Content) == "" && msg.Refusal != "" {
		return "", fmt.Errorf("openai complete: model refused: %s", msg.Refusal)
	}
	return msg.Content, nil
}

func reasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &retry.StatusError{Provider: ProviderOpenAI, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &retry.StatusError{Provider: ProviderOpenAI, StatusCode: reqErr.HTTPStatusCode, Body: summarizePayloadSnippet(string(reqErr.Body))}
	}
	return fmt.Errorf("openai request: %w", err)
}
