package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ytsummarize/internal/config"
	"ytsummarize/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	chat       *chatServer
}

// chatServer is an OpenRouter-compatible endpoint answering with the
// testsupport canned replies.
type chatServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	cs := &chatServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.calls.Add(1)
		var payload struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var prompt string
		for _, m := range payload.Messages {
			if m.Role == "user" {
				prompt = m.Content
			}
		}
		reply := testsupport.SummaryReply
		switch {
		case strings.Contains(prompt, `{"ok":true}`):
			reply = `{"ok":true}`
		case strings.Contains(prompt, "TRANSCRIPT CHUNK"):
			reply = testsupport.ChunkExtractReply
		case strings.Contains(prompt, "Clean Markdown"):
			reply = testsupport.MarkdownReply
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *chatServer) Calls() int { return int(cs.calls.Load()) }

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(homeDir, ".cache"))
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}

	chat := newChatServer(t)
	cfg.LLM.Provider = config.ProviderOpenRouter
	cfg.LLM.Model = config.DefaultModel(config.ProviderOpenRouter)
	cfg.LLM.BaseURL = chat.URL
	cfg.Logging.Level = "error"

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(base, "config.toml"),
		baseDir:    base,
		chat:       chat,
	}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) transcript(t *testing.T, name string) string {
	t.Helper()
	text := "Welcome to the talk. Today we cover caching strategies for video pipelines.\n" +
		"Cache everything that is expensive to fetch, and key it by content.\n"
	return testsupport.WriteTranscript(t, filepath.Join(e.baseDir, "input"), name, text)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIContext(context.Background(), t, args, configPath)
}

func runCLIContext(ctx context.Context, t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func requireNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected %s to be absent", path)
	}
}
