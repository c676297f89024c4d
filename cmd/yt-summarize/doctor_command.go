package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ytsummarize/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var online bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, cache directory, and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, _, err := ctx.runContext(cmd, "doctor")
			if err != nil {
				return err
			}
			results := preflight.RunAll(runCtx, cfg, preflight.Options{Online: online})

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("yt-summarize doctor", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				fmt.Fprintln(out, renderStatusLine(r.Name, preflightStatus(r), r.Detail, colorize))
			}
			if preflight.Failed(results) {
				return errors.New("one or more required checks failed")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also send a test request to the chat provider")
	return cmd
}

func preflightStatus(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
