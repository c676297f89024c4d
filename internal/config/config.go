package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ytsummarize/internal/services"
	"ytsummarize/internal/services/retry"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir  string `toml:"cache_dir"`
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
}

// LLM contains the chat model connection used for summarization.
type LLM struct {
	Provider       string  `toml:"provider"`
	Model          string  `toml:"model"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
}

// Transcription contains the speech-to-text fallback settings.
type Transcription struct {
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	AudioFallback  bool   `toml:"audio_fallback"`
	MaxMinutes     int    `toml:"max_minutes"`
	KeepAudio      bool   `toml:"keep_audio"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	YtDlpBinary    string `toml:"ytdlp_binary"`
}

// Summary contains chunking and output defaults.
type Summary struct {
	Language    string `toml:"language"`
	Format      string `toml:"format"`
	ChunkTokens int    `toml:"chunk_tokens"`
	HTML        bool   `toml:"html"`
}

// Retry configures the shared provider retry policy.
type Retry struct {
	MaxAttempts      int     `toml:"max_attempts"`
	BaseDelaySeconds float64 `toml:"base_delay_seconds"`
	MaxDelaySeconds  float64 `toml:"max_delay_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications configures optional ntfy push messages.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for yt-summarize.
//
// Configuration sections:
//   - Paths: cache, scratch and output directories
//   - LLM: provider, model and credentials used for summarization
//   - Transcription: speech-to-text fallback and yt-dlp settings
//   - Summary: default language, output format and chunk budget
//   - Retry: attempt count and backoff for provider calls
//   - Logging: log format and level
//   - Notifications: ntfy endpoint for completion and failure messages
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Transcription Transcription `toml:"transcription"`
	Summary       Summary       `toml:"summary"`
	Retry         Retry         `toml:"retry"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, appName)
	}
	return "~/.cache/" + appName
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// RequireChatCredentials reports a configuration error when the selected
// chat provider has no API key.
func (c *Config) RequireChatCredentials() error {
	if strings.TrimSpace(c.LLM.APIKey) != "" {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "config", "llm",
		fmt.Sprintf("llm.api_key is required for provider %q; set %s or edit the config file", c.LLM.Provider, ProviderKeyEnv(c.LLM.Provider)), nil)
}

// RequireTranscriptionCredentials reports a configuration error when the
// speech-to-text fallback has no API key.
func (c *Config) RequireTranscriptionCredentials() error {
	if strings.TrimSpace(c.Transcription.APIKey) != "" {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "config", "transcription",
		"transcription.api_key is required for audio fallback; set OPENAI_API_KEY or pass --no-audio-fallback", nil)
}

// RetryPolicy converts the [retry] section into the shared policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelaySeconds * float64(time.Second)),
		MaxDelay:    time.Duration(c.Retry.MaxDelaySeconds * float64(time.Second)),
	}
}

// ProviderKeyEnv names the primary environment variable holding the API key
// for a chat provider.
func ProviderKeyEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}
