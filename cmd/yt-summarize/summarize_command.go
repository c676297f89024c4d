package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"ytsummarize/internal/config"
	"ytsummarize/internal/language"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/notifications"
	"ytsummarize/internal/output"
	"ytsummarize/internal/pipeline"
	"ytsummarize/internal/summarize"
)

type summarizeFlags struct {
	out             string
	lang            string
	format          string
	force           bool
	noAudioFallback bool
	maxMinutes      int
	model           string
	transcribeModel string
	chunkTokens     int
	title           string
	localOnly       bool
	html            bool
	json            bool
}

// summarizeReport is the --json result.
type summarizeReport struct {
	Source           string   `json:"source"`
	Title            string   `json:"title"`
	CacheKey         string   `json:"cache_key"`
	Method           string   `json:"method"`
	Lang             string   `json:"lang"`
	TranscriptCached bool     `json:"transcript_cached"`
	SummaryCached    bool     `json:"summary_cached"`
	Formats          string   `json:"formats,omitempty"`
	Model            string   `json:"model,omitempty"`
	EstimatedCost    *float64 `json:"estimated_cost,omitempty"`
	OutputDir        string   `json:"output_dir"`
	Files            []string `json:"files"`
}

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var f summarizeFlags

	cmd := &cobra.Command{
		Use:   "summarize SOURCE",
		Short: "Fetch a transcript and summarize it",
		Long: "Fetch the transcript for a YouTube URL, video ID, or local .txt file and\n" +
			"write transcript.txt, meta.json and the requested summary files.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := applySummarizeOverrides(*base, f, cmd)
			if err != nil {
				return err
			}
			var reps summarize.Representation
			if strings.TrimSpace(f.format) != "" {
				reps, err = summarize.ParseRepresentation(f.format)
				if err != nil {
					return err
				}
			}

			runCtx, logger, err := ctx.runContext(cmd, "cli")
			if err != nil {
				return err
			}
			runner := ctx.newRunner(&cfg, logger, cmd.ErrOrStderr())
			notifier := notifications.NewService(&cfg)

			result, err := runner.Run(runCtx, pipeline.Request{
				Source:          args[0],
				Lang:            f.lang,
				Title:           f.title,
				Force:           f.force,
				LocalOnly:       f.localOnly,
				Representations: reps,
				Model:           f.model,
				ChunkTokens:     f.chunkTokens,
			})
			if err != nil {
				notify(runCtx, logger, func(c context.Context) error {
					return notifier.NotifyError(c, err, args[0])
				})
				return err
			}

			dir := strings.TrimSpace(f.out)
			if dir == "" {
				dir = output.DefaultDir(cfg.Paths.OutputDir, result)
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}
			written, err := output.Write(dir, result, output.Options{HTML: f.html || cfg.Summary.HTML})
			if err != nil {
				return err
			}
			logging.WithContext(runCtx, logger).Info("outputs written",
				logging.String("dir", written.Dir),
				logging.Int("files", len(written.Files)),
			)
			notify(runCtx, logger, func(c context.Context) error {
				return notifyResult(c, notifier, result, written)
			})

			if f.json {
				return writeJSON(cmd, buildSummarizeReport(result, written))
			}
			printSummarizeResult(cmd.OutOrStdout(), result, written)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.out, "out", "o", "", "Output directory (default: <output_dir>/<title>)")
	fl.StringVarP(&f.lang, "lang", "l", "", "Language code (auto, en, sv, ...)")
	fl.StringVarP(&f.format, "format", "f", "", "Output format: md, json, or md+json")
	fl.BoolVar(&f.force, "force", false, "Ignore cache and re-fetch/re-summarize")
	fl.BoolVar(&f.noAudioFallback, "no-audio-fallback", false, "Fail if no captions are available")
	fl.IntVar(&f.maxMinutes, "max-minutes", 0, "Maximum video length in minutes for audio fallback")
	fl.StringVarP(&f.model, "model", "m", "", "Chat model for summarization")
	fl.StringVar(&f.transcribeModel, "transcribe-model", "", "Speech-to-text model")
	fl.IntVar(&f.chunkTokens, "chunk-tokens", 0, "Token budget per map-reduce chunk")
	fl.StringVarP(&f.title, "title", "t", "", "Title for local file input")
	fl.BoolVar(&f.localOnly, "local-only", false, "Export the transcript only; no model calls")
	fl.BoolVar(&f.html, "html", false, "Also render summary.html")
	fl.BoolVar(&f.json, "json", false, "Print a machine-readable result")
	return cmd
}

// applySummarizeOverrides returns a copy of base with per-run flags applied.
func applySummarizeOverrides(base config.Config, f summarizeFlags, cmd *cobra.Command) (config.Config, error) {
	cfg := base
	if f.noAudioFallback {
		cfg.Transcription.AudioFallback = false
	}
	if cmd.Flags().Changed("max-minutes") {
		if f.maxMinutes <= 0 {
			return cfg, fmt.Errorf("--max-minutes must be positive")
		}
		cfg.Transcription.MaxMinutes = f.maxMinutes
	}
	if cmd.Flags().Changed("chunk-tokens") && f.chunkTokens <= 0 {
		return cfg, fmt.Errorf("--chunk-tokens must be positive")
	}
	if v := strings.TrimSpace(f.transcribeModel); v != "" {
		cfg.Transcription.Model = v
	}
	return cfg, nil
}

func (c *commandContext) newRunner(cfg *config.Config, logger *slog.Logger, warnings io.Writer) *pipeline.Runner {
	return pipeline.New(cfg, logger, pipeline.WithWarn(func(msg string) {
		fmt.Fprintln(warnings, msg)
	}))
}

func notifyResult(ctx context.Context, notifier notifications.Service, result pipeline.Result, written output.Written) error {
	title := result.Transcript.Record.Title
	if result.Summary == nil {
		return notifier.NotifyTranscriptExported(ctx, title, written.Dir)
	}
	return notifier.NotifySummaryReady(ctx, title, result.Summary.Representations().String(), written.Dir)
}

func buildSummarizeReport(result pipeline.Result, written output.Written) summarizeReport {
	rec := result.Transcript.Record
	report := summarizeReport{
		Source:           result.Source.Ref,
		Title:            rec.Title,
		CacheKey:         result.Transcript.Key,
		Method:           string(rec.Method),
		Lang:             rec.Lang,
		TranscriptCached: result.Transcript.CacheHit,
		SummaryCached:    result.SummaryCacheHit,
		OutputDir:        written.Dir,
		Files:            written.Files,
	}
	if result.Summary != nil {
		report.Formats = result.Summary.Representations().String()
		report.Model = result.Summary.Model
	}
	if result.Estimate != nil {
		cost := result.Estimate.Cost
		report.EstimatedCost = &cost
	}
	return report
}

func printSummarizeResult(out io.Writer, result pipeline.Result, written output.Written) {
	rec := result.Transcript.Record
	transcriptNote := "fetched"
	if result.Transcript.CacheHit {
		transcriptNote = "cached"
	}
	fmt.Fprintf(out, "Title:      %s\n", rec.Title)
	fmt.Fprintf(out, "Transcript: %s, %s (%s)\n", rec.Method, language.DisplayName(rec.Lang), transcriptNote)
	switch {
	case result.Summary == nil:
		fmt.Fprintln(out, "Summary:    skipped (local only)")
	case result.SummaryCacheHit:
		fmt.Fprintf(out, "Summary:    %s (cached)\n", result.Summary.Representations())
	default:
		line := fmt.Sprintf("Summary:    %s via %s", result.Summary.Representations(), result.Summary.Model)
		if result.Estimate != nil {
			line += fmt.Sprintf(" (~$%.4f)", result.Estimate.Cost)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, "Done!")
	fmt.Fprintf(out, "Output: %s\n", written.Dir)
}
