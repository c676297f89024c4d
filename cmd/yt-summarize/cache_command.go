package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytsummarize/internal/cache"
	"ytsummarize/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the transcript and summary cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached transcripts and summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cacheStore(ctx, cmd)
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				title := strings.TrimSpace(entry.Title)
				if title == "" {
					title = "-"
				}
				rows = append(rows, []string{
					entry.Key,
					string(entry.Kind),
					title,
					humanBytes(entry.Size),
					entry.Modified.Local().Format(stampLayout),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Key", "Kind", "Title", "Size", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entries as JSON")
	return cmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cacheStore(ctx, cmd)
			if err != nil {
				return err
			}
			stats, err := store.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory:   %s\n", stats.Dir)
			fmt.Fprintf(out, "Transcripts: %d\n", stats.Transcripts)
			fmt.Fprintf(out, "Summaries:   %d\n", stats.Summaries)
			fmt.Fprintf(out, "Total size:  %s\n", humanBytes(stats.TotalBytes))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var key string
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if key == "" && !all {
				return errors.New("specify --key KEY or --all")
			}
			if key != "" && all {
				return errors.New("--key and --all are mutually exclusive")
			}
			store, err := cacheStore(ctx, cmd)
			if err != nil {
				return err
			}
			var removed int
			if all {
				removed, err = store.ClearAll()
			} else {
				removed, err = store.Clear(key)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d file(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Cache key to remove (see cache list)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every cached entry")
	return cmd
}

func cacheStore(ctx *commandContext, cmd *cobra.Command) (*cache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	logger = logger.With(logging.String(logging.FieldComponent, "cli-cache"))
	return cache.New(cfg.Paths.CacheDir, logger), nil
}
