package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ytsummarize/internal/config"
	"ytsummarize/internal/deps"
	"ytsummarize/internal/services/llm"
	"ytsummarize/internal/services/retry"
	"ytsummarize/internal/services/ytdlp"
)

// CheckYtDlp verifies that yt-dlp runs and reports its version.
func CheckYtDlp(ctx context.Context, client *ytdlp.Client) Result {
	const name = "yt-dlp"

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	version, err := client.Version(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (version %s)", client.Binary(), version)}
}

// CheckFFmpeg reports the ffmpeg binary yt-dlp will use. It is optional
// unless audio fallback is enabled.
func CheckFFmpeg(required bool) Result {
	status := deps.CheckFFmpeg()
	result := Result{Name: status.Name, Passed: status.Available, Optional: !required}
	if status.Available {
		result.Detail = status.Command
	} else {
		result.Detail = status.Detail
		if !required {
			result.Detail += " (only needed for audio fallback)"
		}
	}
	return result
}

// CheckCacheDir creates the cache directory when missing and verifies access.
func CheckCacheDir(path string) Result {
	const name = "Cache directory"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredential reports whether an API key is configured without revealing it.
func CheckCredential(name, key, envVar string, optional bool) Result {
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{Name: name, Optional: optional, Detail: "missing (set " + envVar + " or edit the config file)"}
	}
	return Result{Name: name, Passed: true, Optional: optional, Detail: "configured (" + maskKey(key) + ")"}
}

// CheckLLM verifies that the chat API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	name := "Chat provider (" + cfg.LLM.Provider + ")"
	if cfg.LLM.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := llm.NewClient(checkCtx, llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: 64,
		Referer:   cfg.LLM.Referer,
		Title:     cfg.LLM.Title,
	}, llm.WithRetryPolicy(retry.Policy{MaxAttempts: 1}))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := llm.HealthCheck(checkCtx, client, cfg.LLM.Model); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable (" + cfg.LLM.Model + ")"}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
