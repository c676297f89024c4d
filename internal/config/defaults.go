package config

const (
	appName           = "yt-summarize"
	defaultConfigPath = "~/.config/yt-summarize/config.toml"
	projectConfigName = "yt-summarize.toml"

	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"

	defaultWorkDir            = "~/.local/share/yt-summarize/work"
	defaultOutputDir          = "./out"
	defaultProvider           = ProviderOpenAI
	defaultTemperature        = 0.2
	defaultMaxTokens          = 4096
	defaultLLMTimeoutSeconds  = 120
	defaultOpenRouterReferer  = "https://github.com/ytsummarize/yt-summarize"
	defaultOpenRouterTitle    = "yt-summarize"
	defaultTranscribeModel    = "gpt-4o-mini-transcribe"
	defaultMaxMinutes         = 180
	defaultSTTTimeoutSeconds  = 600
	defaultYtDlpBinary        = "yt-dlp"
	defaultLanguage           = "auto"
	defaultFormat             = "md"
	defaultChunkTokens        = 3000
	defaultRetryAttempts      = 3
	defaultRetryBaseDelaySecs = 2
	defaultRetryMaxDelaySecs  = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultNtfyTimeoutSeconds = 10
)

var defaultModels = map[string]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
	ProviderGemini:     "gemini-2.5-flash",
	ProviderOpenRouter: "openai/gpt-4o-mini",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultCacheDir(),
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
		},
		LLM: LLM{
			Provider:       defaultProvider,
			Temperature:    defaultTemperature,
			MaxTokens:      defaultMaxTokens,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			Model:          defaultTranscribeModel,
			AudioFallback:  true,
			MaxMinutes:     defaultMaxMinutes,
			TimeoutSeconds: defaultSTTTimeoutSeconds,
			YtDlpBinary:    defaultYtDlpBinary,
		},
		Summary: Summary{
			Language:    defaultLanguage,
			Format:      defaultFormat,
			ChunkTokens: defaultChunkTokens,
		},
		Retry: Retry{
			MaxAttempts:      defaultRetryAttempts,
			BaseDelaySeconds: defaultRetryBaseDelaySecs,
			MaxDelaySeconds:  defaultRetryMaxDelaySecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}
