package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ytsummarize/internal/output"
	"ytsummarize/internal/services"
)

func TestSummarizeLocalFileWritesOutputs(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.transcript(t, "talk.txt")
	outDir := filepath.Join(env.baseDir, "result")

	stdout, _, err := runCLI(t, []string{"summarize", src, "--out", outDir, "--format", "md+json", "--html"}, env.configPath)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	requireContains(t, stdout, "Done!")
	requireContains(t, stdout, "Output: "+outDir)
	for _, name := range []string{output.TranscriptFile, output.MetaFile, output.MarkdownFile, output.JSONFile, output.HTMLFile} {
		requireFile(t, filepath.Join(outDir, name))
	}
	// One chunk: one map call plus one reduce per representation.
	if got := env.chat.Calls(); got != 3 {
		t.Fatalf("expected 3 chat calls, got %d", got)
	}

	stdout, _, err = runCLI(t, []string{"summarize", src, "--out", outDir, "--format", "md+json"}, env.configPath)
	if err != nil {
		t.Fatalf("second summarize: %v", err)
	}
	requireContains(t, stdout, "(cached)")
	if got := env.chat.Calls(); got != 3 {
		t.Fatalf("cached run should not call the model, got %d calls", got)
	}
}

func TestSummarizeDefaultOutputDirUsesTitle(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.transcript(t, "lecture.txt")

	stdout, _, err := runCLI(t, []string{"summarize", src, "--title", "Systems Lecture"}, env.configPath)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	dir := filepath.Join(env.cfg.Paths.OutputDir, "Systems Lecture")
	requireContains(t, stdout, dir)
	requireFile(t, filepath.Join(dir, output.MarkdownFile))
	requireNoFile(t, filepath.Join(dir, output.JSONFile))
}

func TestSummarizeLocalOnlyNeedsNoKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.LLM.APIKey = ""
	env.writeConfig(t)
	src := env.transcript(t, "talk.txt")
	outDir := filepath.Join(env.baseDir, "result")

	stdout, _, err := runCLI(t, []string{"summarize", src, "--out", outDir, "--local-only"}, env.configPath)
	if err != nil {
		t.Fatalf("summarize --local-only: %v", err)
	}
	requireContains(t, stdout, "skipped (local only)")
	requireFile(t, filepath.Join(outDir, output.TranscriptFile))
	requireFile(t, filepath.Join(outDir, output.MetaFile))
	requireNoFile(t, filepath.Join(outDir, output.MarkdownFile))
	if got := env.chat.Calls(); got != 0 {
		t.Fatalf("expected no chat calls, got %d", got)
	}
}

func TestSummarizeMissingChatKeyFailsFast(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.LLM.APIKey = ""
	env.writeConfig(t)
	src := env.transcript(t, "talk.txt")

	_, _, err := runCLI(t, []string{"summarize", src}, env.configPath)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	requireContains(t, err.Error(), "OPENROUTER_API_KEY")
	if _, statErr := os.Stat(env.cfg.Paths.CacheDir); statErr == nil {
		t.Fatal("cache directory should not be created before credentials are checked")
	}
}

func TestSummarizeJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.transcript(t, "talk.txt")
	outDir := filepath.Join(env.baseDir, "result")

	stdout, _, err := runCLI(t, []string{"summarize", src, "--out", outDir, "--json", "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("summarize --json: %v", err)
	}
	var report summarizeReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, stdout)
	}
	if report.CacheKey == "" || report.Method != "local-file" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Formats != "json" {
		t.Fatalf("formats = %q, want json", report.Formats)
	}
	if report.EstimatedCost == nil {
		t.Fatal("expected cost estimate on a fresh summary")
	}
	if report.OutputDir != outDir || len(report.Files) != 3 {
		t.Fatalf("unexpected outputs: %s %v", report.OutputDir, report.Files)
	}
}

func TestSummarizeRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	src := env.transcript(t, "talk.txt")

	cases := map[string][]string{
		"format":        {"summarize", src, "--format", "pdf"},
		"max minutes":   {"summarize", src, "--max-minutes", "0"},
		"chunk tokens":  {"summarize", src, "--chunk-tokens", "-5"},
		"missing file":  {"summarize", filepath.Join(env.baseDir, "gone.txt")},
		"missing arg":   {"summarize"},
		"not a txt ref": {"summarize", filepath.Join(env.baseDir, "notes.pdf")},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := runCLI(t, args, env.configPath); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
	if got := env.chat.Calls(); got != 0 {
		t.Fatalf("expected no chat calls, got %d", got)
	}
}
