package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ytsummarize/internal/cache"
	"ytsummarize/internal/config"
	"ytsummarize/internal/costs"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
	"ytsummarize/internal/services/captions"
	"ytsummarize/internal/services/llm"
	"ytsummarize/internal/services/retry"
	"ytsummarize/internal/services/stt"
	"ytsummarize/internal/services/ytdlp"
	"ytsummarize/internal/summarize"
	"ytsummarize/internal/transcript"
)

// Request is one summarize invocation.
type Request struct {
	Source          string
	Lang            string
	Title           string
	Force           bool
	LocalOnly       bool
	Representations summarize.Representation
	// Model and ChunkTokens override the configured values when set.
	Model       string
	ChunkTokens int
}

// Result is everything the output writer needs.
type Result struct {
	Source          transcript.Source
	Transcript      transcript.Result
	Summary         *cache.SummaryRecord
	SummaryCacheHit bool
	Estimate        *costs.SummarizationEstimate
	Representations summarize.Representation
}

// Runner executes requests against one configuration.
type Runner struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *cache.Store
	chat        llm.Client
	transcriber stt.Transcriber
	captions    captions.Lister
	downloader  transcript.Downloader
	warn        func(string)
}

// Option customizes a Runner.
type Option func(*Runner)

// WithStore replaces the cache store built from paths.cache_dir.
func WithStore(store *cache.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithChatClient injects the chat client, skipping credential checks for it.
func WithChatClient(client llm.Client) Option {
	return func(r *Runner) { r.chat = client }
}

// WithTranscriber injects the speech-to-text client, skipping credential checks for it.
func WithTranscriber(t stt.Transcriber) Option {
	return func(r *Runner) { r.transcriber = t }
}

// WithCaptions injects the caption index.
func WithCaptions(l captions.Lister) Option {
	return func(r *Runner) { r.captions = l }
}

// WithDownloader injects the subtitle and audio downloader.
func WithDownloader(d transcript.Downloader) Option {
	return func(r *Runner) { r.downloader = d }
}

// WithWarn sets the sink for user-facing warnings such as cost estimates.
func WithWarn(fn func(string)) Option {
	return func(r *Runner) { r.warn = fn }
}

// New constructs a Runner.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{cfg: cfg, logger: logging.NewComponentLogger(logger, "pipeline")}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = cache.New(cfg.Paths.CacheDir, logger)
	}
	return r
}

// Store exposes the cache used by the runner.
func (r *Runner) Store() *cache.Store { return r.store }

// Run acquires the transcript for req and, unless req.LocalOnly, summarizes it.
// Missing credentials are reported before any network activity.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	src, err := transcript.ParseSource(req.Source)
	if err != nil {
		return Result{}, err
	}
	reps := req.Representations
	if reps == 0 {
		parsed, err := summarize.ParseRepresentation(r.cfg.Summary.Format)
		if err != nil {
			return Result{}, err
		}
		reps = parsed
	}
	opts, err := summarize.NewOptions(summarize.Options{
		Title:           req.Title,
		Model:           firstNonEmpty(req.Model, r.cfg.LLM.Model),
		ChunkTokens:     firstPositive(req.ChunkTokens, r.cfg.Summary.ChunkTokens),
		Representations: reps,
		Temperature:     r.cfg.LLM.Temperature,
	})
	if err != nil {
		return Result{}, err
	}
	lang := firstNonEmpty(strings.TrimSpace(req.Lang), r.cfg.Summary.Language, transcript.AutoLanguage)

	if err := r.requireCredentials(src, req.LocalOnly); err != nil {
		return Result{}, err
	}

	result := Result{Source: src, Representations: reps}
	err = r.stage(ctx, "transcript", func(ctx context.Context, logger *slog.Logger) error {
		chain, err := r.chain()
		if err != nil {
			return err
		}
		var tr transcript.Result
		if src.Kind == transcript.SourceLocalFile {
			tr, err = chain.LoadLocal(ctx, src.Path, req.Title, req.Force)
		} else {
			tr, err = chain.Acquire(ctx, transcript.Request{VideoID: src.VideoID, Lang: lang, Force: req.Force})
		}
		if err != nil {
			return err
		}
		result.Transcript = tr
		logger.Info("transcript ready",
			logging.String(logging.FieldCacheKey, tr.Key),
			logging.String(logging.FieldMethod, string(tr.Record.Method)),
			logging.Bool("cache_hit", tr.CacheHit),
			logging.Int("characters", len(tr.Record.Text)),
		)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if req.LocalOnly {
		r.logger.Info("local-only run; skipping summarization")
		return result, nil
	}

	key := result.Transcript.Key
	if !req.Force {
		if rec, ok := r.store.Summary(key, reps); ok {
			// Only hand back what was asked for.
			if !reps.Has(summarize.Markdown) {
				rec.Markdown = ""
			}
			if !reps.Has(summarize.Structured) {
				rec.JSONData = nil
			}
			r.logger.Info("using cached summary",
				logging.String(logging.FieldCacheKey, key),
				logging.String("formats", reps.String()),
				logging.String("cached_model", rec.Model),
				logging.String("requested_model", opts.Model),
			)
			result.Summary = &rec
			result.SummaryCacheHit = true
			return result, nil
		}
	}

	opts.Title = firstNonEmpty(opts.Title, result.Transcript.Record.Title)
	if src.Kind == transcript.SourceVideo {
		opts.SourceURL = ytdlp.WatchURL(src.VideoID)
	} else {
		opts.SourceURL = src.Path
	}
	err = r.stage(ctx, "summarize", func(ctx context.Context, logger *slog.Logger) error {
		text := result.Transcript.Record.Text
		est := costs.EstimateSummarization(text, opts.ChunkTokens, opts.Model, reduceCalls(reps))
		result.Estimate = &est
		if est.ShouldWarn {
			logging.WarnWithContext(logger, "summarization cost above threshold", "summarization_cost_warning",
				logging.Float64("estimated_cost", est.Cost),
				logging.Int("tokens", est.Tokens),
				logging.Int(logging.FieldChunkTotal, est.Chunks),
				logging.String(logging.FieldErrorHint, "use a cheaper --model or --local-only"),
				logging.String(logging.FieldImpact, "provider charges apply"),
			)
			r.notify(costs.FormatWarning("Summarization", est.Cost, est.Details()))
		}

		chat, err := r.chatClient(ctx)
		if err != nil {
			return err
		}
		out, err := summarize.New(chat, r.logger).Summarize(ctx, text, opts)
		if err != nil {
			return err
		}
		data, err := out.JSON()
		if err != nil {
			return fmt.Errorf("encode structured summary: %w", err)
		}
		rec := cache.SummaryRecord{
			Markdown: out.Markdown,
			JSONData: data,
			Model:    opts.Model,
			CachedAt: time.Now().UTC(),
		}
		if err := r.store.PutSummary(key, rec); err != nil {
			logging.WarnWithContext(logger, "failed to cache summary", "summary_cache_write_failed",
				logging.String(logging.FieldCacheKey, key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache directory permissions"),
				logging.String(logging.FieldImpact, "summary will be regenerated next run"),
			)
		}
		result.Summary = &rec
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// stage runs fn with stage-scoped context and logs its outcome.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)
	started := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := fn(stageCtx, logger); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failed"),
			logging.String("error_kind", services.KindOf(err).String()),
			logging.Error(err),
		)
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", time.Since(started)),
	)
	return nil
}

func (r *Runner) requireCredentials(src transcript.Source, localOnly bool) error {
	if !localOnly && r.chat == nil {
		if err := r.cfg.RequireChatCredentials(); err != nil {
			return err
		}
	}
	if src.Kind == transcript.SourceVideo && r.cfg.Transcription.AudioFallback && r.transcriber == nil {
		if err := r.cfg.RequireTranscriptionCredentials(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) chain() (*transcript.Chain, error) {
	if r.captions == nil {
		r.captions = captions.New()
	}
	if r.downloader == nil {
		r.downloader = ytdlp.New(r.cfg.Transcription.YtDlpBinary)
	}
	if r.transcriber == nil && r.cfg.Transcription.AudioFallback && strings.TrimSpace(r.cfg.Transcription.APIKey) != "" {
		client, err := stt.New(stt.Config{
			APIKey:         r.cfg.Transcription.APIKey,
			BaseURL:        r.cfg.Transcription.BaseURL,
			TimeoutSeconds: r.cfg.Transcription.TimeoutSeconds,
		}, stt.WithRetryPolicy(r.retryPolicy("stt")))
		if err != nil {
			return nil, err
		}
		r.transcriber = client
	}
	deps := transcript.Deps{
		Store:       r.store,
		Captions:    r.captions,
		Downloader:  r.downloader,
		Transcriber: r.transcriber,
		Logger:      r.logger,
		Warn:        r.notify,
	}
	return transcript.NewChain(deps, transcript.Options{
		AudioFallback:   r.cfg.Transcription.AudioFallback,
		MaxMinutes:      r.cfg.Transcription.MaxMinutes,
		KeepAudio:       r.cfg.Transcription.KeepAudio,
		WorkDir:         r.cfg.Paths.WorkDir,
		TranscribeModel: r.cfg.Transcription.Model,
	}), nil
}

func (r *Runner) chatClient(ctx context.Context) (llm.Client, error) {
	if r.chat != nil {
		return r.chat, nil
	}
	client, err := llm.NewClient(ctx, llm.Config{
		Provider:       r.cfg.LLM.Provider,
		APIKey:         r.cfg.LLM.APIKey,
		BaseURL:        r.cfg.LLM.BaseURL,
		Model:          r.cfg.LLM.Model,
		MaxTokens:      r.cfg.LLM.MaxTokens,
		TimeoutSeconds: r.cfg.LLM.TimeoutSeconds,
		Referer:        r.cfg.LLM.Referer,
		Title:          r.cfg.LLM.Title,
	}, llm.WithRetryPolicy(r.retryPolicy("llm")), llm.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	r.chat = client
	return client, nil
}

func (r *Runner) retryPolicy(component string) retry.Policy {
	policy := r.cfg.RetryPolicy()
	policy.Logger = logging.NewComponentLogger(r.logger, component)
	return policy
}

func (r *Runner) notify(msg string) {
	if r.warn != nil {
		r.warn(msg)
	}
}

func reduceCalls(reps summarize.Representation) int {
	n := 0
	if reps.Has(summarize.Markdown) {
		n++
	}
	if reps.Has(summarize.Structured) {
		n++
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
