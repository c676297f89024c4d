package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheCommandsLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, stdout, "Cache is empty")

	src := env.transcript(t, "talk.txt")
	stdout, _, err = runCLI(t, []string{"summarize", src, "--out", filepath.Join(env.baseDir, "result"), "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	var report summarizeReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, stdout, "Transcripts: 1")
	requireContains(t, stdout, "Summaries:   1")
	requireContains(t, stdout, "Total size:")

	stdout, _, err = runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, stdout, report.CacheKey)
	requireContains(t, stdout, "talk")
	if strings.Count(stdout, report.CacheKey) != 2 {
		t.Fatalf("expected a transcript and a summary row, got:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"cache", "clear", "--key", report.CacheKey}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear --key: %v", err)
	}
	requireContains(t, stdout, "Cleared 2 file(s)")

	stdout, _, err = runCLI(t, []string{"cache", "clear", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear --all: %v", err)
	}
	requireContains(t, stdout, "Cleared 0 file(s)")
}

func TestCacheClearRequiresTarget(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without --key or --all")
	}
	requireContains(t, err.Error(), "--key")

	if _, _, err := runCLI(t, []string{"cache", "clear", "--key", "k", "--all"}, env.configPath); err == nil {
		t.Fatal("expected error when both --key and --all are set")
	}
}

func TestCacheListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.transcript(t, "talk.txt")
	if _, _, err := runCLI(t, []string{"summarize", src, "--local-only", "--out", filepath.Join(env.baseDir, "result")}, env.configPath); err != nil {
		t.Fatalf("summarize: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"cache", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list --json: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("decode entries: %v\n%s", err, stdout)
	}
	if len(entries) != 1 || entries[0]["Kind"] != "transcript" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}
