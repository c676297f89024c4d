package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytsummarize/internal/config"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/notifications"
	"ytsummarize/internal/output"
	"ytsummarize/internal/pipeline"
	"ytsummarize/internal/services"
	"ytsummarize/internal/summarize"
	"ytsummarize/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var format string
	var localOnly bool
	var html bool
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Summarize .txt transcripts as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve watch directory: %w", err)
			}
			var reps summarize.Representation
			if strings.TrimSpace(format) != "" {
				if reps, err = summarize.ParseRepresentation(format); err != nil {
					return err
				}
			}
			runCtx, logger, err := ctx.runContext(cmd, "watch")
			if err != nil {
				return err
			}
			if !localOnly {
				if err := cfg.RequireChatCredentials(); err != nil {
					return err
				}
			}
			runner := ctx.newRunner(cfg, logger, cmd.ErrOrStderr())
			notifier := notifications.NewService(cfg)
			out := cmd.OutOrStdout()

			handler := func(hctx context.Context, path string) error {
				// Each file is its own run with its own correlation id.
				fileCtx := services.WithRequestID(hctx, newRequestID())
				result, written, err := summarizeWatched(fileCtx, runner, path, pipeline.Request{
					LocalOnly:       localOnly,
					Representations: reps,
				}, cfg.Paths.OutputDir, output.Options{HTML: html || cfg.Summary.HTML})
				if err != nil {
					notify(fileCtx, logger, func(c context.Context) error {
						return notifier.NotifyError(c, err, filepath.Base(path))
					})
					return err
				}
				fmt.Fprintf(out, "%s -> %s\n", filepath.Base(path), written.Dir)
				notify(fileCtx, logger, func(c context.Context) error {
					return notifyResult(c, notifier, result, written)
				})
				return nil
			}

			w, err := watch.New(dir, handler, watch.Options{Settle: settle, Logger: logger})
			if err != nil {
				return err
			}
			defer w.Close()
			logging.WithContext(runCtx, logger).Info("watch started",
				logging.String("dir", dir),
				logging.String("output_dir", cfg.Paths.OutputDir),
			)
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)
			return w.Run(runCtx)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: md, json, or md+json")
	cmd.Flags().BoolVar(&localOnly, "local-only", false, "Export transcripts only; no model calls")
	cmd.Flags().BoolVar(&html, "html", false, "Also render summary.html")
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "Quiet period before a written file is processed")
	return cmd
}

func summarizeWatched(ctx context.Context, runner *pipeline.Runner, path string, req pipeline.Request, outputBase string, opts output.Options) (pipeline.Result, output.Written, error) {
	req.Source = path
	result, err := runner.Run(ctx, req)
	if err != nil {
		return pipeline.Result{}, output.Written{}, err
	}
	written, err := output.Write(output.DefaultDir(outputBase, result), result, opts)
	if err != nil {
		return result, written, err
	}
	return result, written, nil
}
