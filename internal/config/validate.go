package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by the commands that need them.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateSummary(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if _, ok := defaultModels[c.LLM.Provider]; !ok {
		return fmt.Errorf("llm.provider must be one of openai, anthropic, gemini, openrouter (got %q)", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.MaxMinutes <= 0 {
		return errors.New("transcription.max_minutes must be positive")
	}
	return nil
}

func (c *Config) validateSummary() error {
	switch c.Summary.Format {
	case "md", "json", "md+json", "md,json", "json+md", "json,md":
	default:
		return fmt.Errorf("summary.format must be md, json, or md+json (got %q)", c.Summary.Format)
	}
	if c.Summary.ChunkTokens <= 0 {
		return errors.New("summary.chunk_tokens must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelaySeconds < 0 {
		return errors.New("retry.base_delay_seconds must be >= 0")
	}
	return nil
}
