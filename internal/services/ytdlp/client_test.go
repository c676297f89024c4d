package ytdlp_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"ytsummarize/internal/services"
	"ytsummarize/internal/services/ytdlp"
)

type stubExecutor struct {
	stdout string
	stderr string
	err    error
	calls  [][]string
	// onRun simulates files yt-dlp writes to disk.
	onRun func(args []string)
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string(nil), args...))
	if s.onRun != nil {
		s.onRun(args)
	}
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func outputDir(args []string) string {
	idx := slices.Index(args, "-o")
	return filepath.Dir(args[idx+1])
}

func TestFetchSubtitlesPrefersManualEnglish(t *testing.T) {
	work := t.TempDir()
	stub := &stubExecutor{onRun: func(args []string) {
		dir := outputDir(args)
		_ = os.WriteFile(filepath.Join(dir, "abcdefghijk.de.vtt"), []byte("WEBVTT\n\nde"), 0o644)
		_ = os.WriteFile(filepath.Join(dir, "abcdefghijk.en.vtt"), []byte("WEBVTT\n\nen"), 0o644)
	}}
	client := ytdlp.New("", ytdlp.WithExecutor(stub))

	raw, lang, err := client.FetchSubtitles(context.Background(), "abcdefghijk", "auto", work)
	if err != nil {
		t.Fatalf("FetchSubtitles: %v", err)
	}
	if lang != "en" || !strings.Contains(raw, "en") {
		t.Fatalf("unexpected subtitle choice lang=%q raw=%q", lang, raw)
	}
	args := stub.calls[0]
	if !slices.Contains(args, "--write-auto-subs") || !slices.Contains(args, "en,en-US,en-GB") {
		t.Fatalf("auto mode args missing: %v", args)
	}
}

func TestFetchSubtitlesExplicitLanguageArgs(t *testing.T) {
	stub := &stubExecutor{onRun: func(args []string) {
		_ = os.WriteFile(filepath.Join(outputDir(args), "abcdefghijk.pt-BR.vtt"), []byte("WEBVTT"), 0o644)
	}}
	client := ytdlp.New("", ytdlp.WithExecutor(stub))
	_, lang, err := client.FetchSubtitles(context.Background(), "abcdefghijk", "pt-BR", t.TempDir())
	if err != nil {
		t.Fatalf("FetchSubtitles: %v", err)
	}
	if lang != "pt-BR" {
		t.Fatalf("expected pt-BR, got %q", lang)
	}
	if !slices.Contains(stub.calls[0], "pt-BR,en") || slices.Contains(stub.calls[0], "--write-auto-subs") {
		t.Fatalf("unexpected args: %v", stub.calls[0])
	}
}

func TestFetchSubtitlesNoFiles(t *testing.T) {
	client := ytdlp.New("", ytdlp.WithExecutor(&stubExecutor{}))
	_, _, err := client.FetchSubtitles(context.Background(), "abcdefghijk", "auto", t.TempDir())
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestMissingBinaryIsToolMissing(t *testing.T) {
	stub := &stubExecutor{err: fmt.Errorf("exec: %w", exec.ErrNotFound)}
	client := ytdlp.New("yt-dlp", ytdlp.WithExecutor(stub))
	_, _, err := client.FetchSubtitles(context.Background(), "abcdefghijk", "auto", t.TempDir())
	if !errors.Is(err, services.ErrToolMissing) {
		t.Fatalf("expected tool missing, got %v", err)
	}
	if !strings.Contains(err.Error(), ytdlp.Remediation) {
		t.Fatalf("expected remediation in %q", err.Error())
	}
}

func TestCommandFailureCarriesStderr(t *testing.T) {
	stub := &stubExecutor{stderr: "ERROR: Private video", err: errors.New("exit status 1")}
	client := ytdlp.New("", ytdlp.WithExecutor(stub))
	_, err := client.Metadata(context.Background(), "abcdefghijk")
	if !errors.Is(err, services.ErrUnavailable) || !strings.Contains(err.Error(), "Private video") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetadata(t *testing.T) {
	stub := &stubExecutor{stdout: `{"title":"Talk","uploader":"Uploader","duration":742.5}`}
	client := ytdlp.New("", ytdlp.WithExecutor(stub))
	meta, err := client.Metadata(context.Background(), "abcdefghijk")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Title != "Talk" || meta.Channel != "Uploader" || meta.DurationSeconds != 742.5 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestDownloadAudio(t *testing.T) {
	stub := &stubExecutor{onRun: func(args []string) {
		_ = os.WriteFile(filepath.Join(outputDir(args), "abcdefghijk.m4a"), []byte("x"), 0o644)
	}}
	client := ytdlp.New("", ytdlp.WithExecutor(stub))
	audio, err := client.DownloadAudio(context.Background(), "abcdefghijk", t.TempDir())
	if err != nil {
		t.Fatalf("DownloadAudio: %v", err)
	}
	if filepath.Base(audio.Path) != "abcdefghijk.m4a" {
		t.Fatalf("unexpected path %s", audio.Path)
	}
	if !slices.Contains(stub.calls[0], "-x") || !slices.Contains(stub.calls[0], "mp3") {
		t.Fatalf("unexpected args %v", stub.calls[0])
	}
}

func TestVersion(t *testing.T) {
	client := ytdlp.New("", ytdlp.WithExecutor(&stubExecutor{stdout: "2025.01.15\n"}))
	version, err := client.Version(context.Background())
	if err != nil || version != "2025.01.15" {
		t.Fatalf("Version = %q, %v", version, err)
	}
}
