package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
)

type ntfyRecorder struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func newNtfyRecorder(t *testing.T) (*httptest.Server, *ntfyRecorder) {
	t.Helper()
	rec := &ntfyRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.titles = append(rec.titles, r.Header.Get("Title"))
		rec.bodies = append(rec.bodies, string(body))
		rec.mu.Unlock()
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func (r *ntfyRecorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...), append([]string(nil), r.bodies...)
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, stdout, "Notifications disabled")
}

func TestTestNotifySends(t *testing.T) {
	env := setupCLITestEnv(t)
	srv, rec := newNtfyRecorder(t)
	env.cfg.Notifications.NtfyTopic = srv.URL
	env.writeConfig(t)

	stdout, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, stdout, "Test notification sent")
	titles, _ := rec.snapshot()
	if len(titles) != 1 || titles[0] != "yt-summarize - Test" {
		t.Fatalf("unexpected notifications: %v", titles)
	}
}

func TestSummarizeNotifiesOnCompletion(t *testing.T) {
	env := setupCLITestEnv(t)
	srv, rec := newNtfyRecorder(t)
	env.cfg.Notifications.NtfyTopic = srv.URL
	env.writeConfig(t)
	src := env.transcript(t, "talk.txt")
	outDir := filepath.Join(env.baseDir, "result")

	if _, _, err := runCLI(t, []string{"summarize", src, "--out", outDir}, env.configPath); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	titles, bodies := rec.snapshot()
	if len(titles) != 1 || titles[0] != "yt-summarize - Summary Ready" {
		t.Fatalf("unexpected notifications: %v", titles)
	}
	requireContains(t, bodies[0], "Summary ready: talk (md)")
	requireContains(t, bodies[0], outDir)
}
