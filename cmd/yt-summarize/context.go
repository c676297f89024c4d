package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ytsummarize/internal/config"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
)

type globalFlags struct {
	config    string
	verbose   bool
	logFormat string
	logLevel  string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.flags != nil {
			path = strings.TrimSpace(c.flags.config)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// newLogger builds the run logger. Flags win over the [logging] section.
func (c *commandContext) newLogger(w io.Writer) (*slog.Logger, error) {
	opts := logging.Options{Writer: w}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		opts.Format = cfg.Logging.Format
		opts.Level = cfg.Logging.Level
	}
	if c.flags != nil {
		if v := strings.TrimSpace(c.flags.logFormat); v != "" {
			opts.Format = v
		}
		if v := strings.TrimSpace(c.flags.logLevel); v != "" {
			opts.Level = v
		}
		if c.flags.verbose {
			opts.Level = "debug"
		}
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// runContext tags cmd's context with a fresh correlation id. The returned
// logger stays context-free; callers derive context fields per log site.
func (c *commandContext) runContext(cmd *cobra.Command, component string) (context.Context, *slog.Logger, error) {
	logger, err := c.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, newRequestID())
	return ctx, logging.NewComponentLogger(logger, component), nil
}

// notify delivers a message through send, logging delivery failures.
func notify(ctx context.Context, logger *slog.Logger, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push message was delivered"),
		)
	}
}

func newRequestID() string {
	return uuid.NewString()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
