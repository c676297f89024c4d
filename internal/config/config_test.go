package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ytsummarize/internal/config"
	"ytsummarize/internal/services"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENROUTER_API_KEY", "XDG_CACHE_HOME"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".cache", "yt-summarize")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if cfg.LLM.Provider != config.ProviderOpenAI {
		t.Fatalf("unexpected provider: %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != config.DefaultModel(config.ProviderOpenAI) {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Transcription.APIKey != "test-key" {
		t.Fatalf("expected transcription key from env, got %q", cfg.Transcription.APIKey)
	}
	if !cfg.Transcription.AudioFallback {
		t.Fatal("expected audio fallback enabled by default")
	}
	if cfg.Transcription.MaxMinutes != 180 {
		t.Fatalf("unexpected max minutes: %d", cfg.Transcription.MaxMinutes)
	}
	if cfg.Summary.ChunkTokens != 3000 || cfg.Summary.Language != "auto" || cfg.Summary.Format != "md" {
		t.Fatalf("unexpected summary defaults: %+v", cfg.Summary)
	}
}

func TestLoadCustomPathSelectsProviderKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "yt-summarize.toml")

	type payload struct {
		Paths struct {
			CacheDir string `toml:"cache_dir"`
		} `toml:"paths"`
		LLM struct {
			Provider string `toml:"provider"`
		} `toml:"llm"`
		Summary struct {
			ChunkTokens int    `toml:"chunk_tokens"`
			Format      string `toml:"format"`
		} `toml:"summary"`
	}
	custom := payload{}
	custom.Paths.CacheDir = filepath.Join(tempDir, "cache")
	custom.LLM.Provider = "Anthropic"
	custom.Summary.ChunkTokens = 1500
	custom.Summary.Format = "md+json"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.LLM.Provider != config.ProviderAnthropic {
		t.Fatalf("expected provider to be normalized, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "env-anthropic" {
		t.Fatalf("expected anthropic key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != config.DefaultModel(config.ProviderAnthropic) {
		t.Fatalf("expected anthropic default model, got %q", cfg.LLM.Model)
	}
	if cfg.Summary.ChunkTokens != 1500 {
		t.Fatalf("expected chunk tokens override, got %d", cfg.Summary.ChunkTokens)
	}
	if cfg.Paths.CacheDir != custom.Paths.CacheDir {
		t.Fatalf("expected cache dir override, got %q", cfg.Paths.CacheDir)
	}
}

func TestConfigFileKeyWinsOverEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "env-key")
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[llm]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("expected file key, got %q", cfg.LLM.APIKey)
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := config.Default()
	err := cfg.RequireChatCredentials()
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected env var hint, got %q", err.Error())
	}
	if err := cfg.RequireTranscriptionCredentials(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	cfg.LLM.APIKey = "k"
	cfg.Transcription.APIKey = "k"
	if err := cfg.RequireChatCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.RequireTranscriptionCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRetryPolicyFromConfig(t *testing.T) {
	cfg := config.Default()
	policy := cfg.RetryPolicy()
	if policy.MaxAttempts != 3 || policy.BaseDelay != 2*time.Second || policy.MaxDelay != 30*time.Second {
		t.Fatalf("unexpected policy: %+v", policy)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.CacheDir, "yt-summarize") {
		t.Fatalf("expected cache dir to contain yt-summarize, got %q", cfg.Paths.CacheDir)
	}
	if cfg.Summary.ChunkTokens != 3000 {
		t.Fatalf("expected sample chunk tokens, got %d", cfg.Summary.ChunkTokens)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mystery"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}

	cfg = config.Default()
	cfg.Summary.Format = "pdf"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown format")
	}

	cfg = config.Default()
	cfg.Summary.ChunkTokens = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative chunk tokens")
	}

	cfg = config.Default()
	cfg.Transcription.MaxMinutes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero max minutes")
	}

	cfg = config.Default()
	cfg.LLM.Temperature = 3
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for temperature out of range")
	}
}
