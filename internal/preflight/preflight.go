package preflight

import (
	"context"

	"ytsummarize/internal/config"
	"ytsummarize/internal/deps"
	"ytsummarize/internal/services/ytdlp"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Options controls which checks RunAll performs.
type Options struct {
	// Online adds a live chat provider health check.
	Online bool
	// YtDlp overrides the yt-dlp client built from config.
	YtDlp *ytdlp.Client
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	ytdlpCheck := func() Result {
		if opts.YtDlp != nil {
			return CheckYtDlp(ctx, opts.YtDlp)
		}
		// Probe PATH first so a missing binary reports install guidance.
		status := deps.CheckBinaries(deps.Requirements(cfg.Transcription.YtDlpBinary, cfg.Transcription.AudioFallback))[0]
		if !status.Available {
			return Result{Name: status.Name, Detail: status.Detail + ". " + ytdlp.Remediation}
		}
		return CheckYtDlp(ctx, ytdlp.New(cfg.Transcription.YtDlpBinary))
	}

	results := []Result{
		ytdlpCheck(),
		CheckFFmpeg(cfg.Transcription.AudioFallback),
		CheckCacheDir(cfg.Paths.CacheDir),
		CheckCredential(cfg.LLM.Provider+" API key", cfg.LLM.APIKey, config.ProviderKeyEnv(cfg.LLM.Provider), false),
		CheckCredential("Transcription API key", cfg.Transcription.APIKey, "OPENAI_API_KEY", !cfg.Transcription.AudioFallback),
	}

	if opts.Online && cfg.LLM.APIKey != "" {
		results = append(results, CheckLLM(ctx, cfg))
	}
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
