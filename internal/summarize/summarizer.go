package summarize

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"ytsummarize/internal/chunker"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
	"ytsummarize/internal/services/llm"
	"ytsummarize/internal/textutil"
)

// Result carries the representations produced by one Summarize call.
type Result struct {
	Markdown   string
	Structured *Summary
	Chunks     int
}

// JSON encodes the structured summary, or returns nil when none was produced.
func (r Result) JSON() (json.RawMessage, error) {
	if r.Structured == nil {
		return nil, nil
	}
	return json.MarshalIndent(r.Structured, "", "  ")
}

// Summarizer runs the map-reduce summarization against a chat client.
type Summarizer struct {
	client llm.Client
	logger *slog.Logger
}

// New constructs a Summarizer. A nil logger discards output.
func New(client llm.Client, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Summarizer{client: client, logger: logging.NewComponentLogger(logger, "summarizer")}
}

// Summarize chunks text, extracts notes from each chunk in order, then merges
// them once per requested representation: markdown first, structured second.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "summarize", "input", "transcript is empty", nil)
	}
	if s.client == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "summarize", "client", "chat client not configured", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	chunks := chunker.Split(text, opts.ChunkTokens)
	started := time.Now()
	logger.Info("summarization started",
		logging.String(logging.FieldModel, opts.Model),
		logging.Int(logging.FieldChunkTotal, len(chunks)),
		logging.String("formats", opts.Representations.String()),
		logging.Bool("schema_mode", s.client.SupportsSchema()),
	)

	extracts, err := s.mapChunks(ctx, logger, chunks, opts)
	if err != nil {
		return Result{}, err
	}
	if dropped := dedupeExtracts(extracts); dropped > 0 {
		logger.Debug("dropped repeated chunk notes", logging.Int("dropped", dropped))
	}

	result := Result{Chunks: len(chunks)}
	if opts.Representations.Has(Markdown) {
		md, err := s.reduceMarkdown(ctx, logger, extracts, opts)
		if err != nil {
			return Result{}, err
		}
		result.Markdown = md
	}
	if opts.Representations.Has(Structured) {
		summary, err := s.reduceStructured(ctx, extracts, opts)
		if err != nil {
			return Result{}, err
		}
		result.Structured = summary
	}

	logger.Info("summarization completed",
		logging.Int(logging.FieldChunkTotal, len(chunks)),
		logging.Duration("duration", time.Since(started)),
	)
	return result, nil
}

func (s *Summarizer) mapChunks(ctx context.Context, logger *slog.Logger, chunks []chunker.Chunk, opts Options) ([]ChunkExtract, error) {
	total := len(chunks)
	extracts := make([]ChunkExtract, 0, total)
	for i, chunk := range chunks {
		req := llm.Request{
			Model:        opts.Model,
			SystemPrompt: MapSystemPrompt,
			UserPrompt:   MapPrompt(chunk.Text, i, total),
			Temperature:  opts.Temperature,
		}
		if s.client.SupportsSchema() {
			req.Schema = &llm.Schema{Name: "chunk_extract", Definition: ChunkExtractSchema}
		}
		logger.Debug("map chunk",
			logging.Int(logging.FieldChunk, i+1),
			logging.Int(logging.FieldChunkTotal, total),
			logging.Int("tokens", chunk.Tokens),
		)
		content, err := s.client.Complete(ctx, req)
		if err != nil {
			return nil, &PhaseError{Phase: PhaseMap, Chunk: i + 1, Total: total, Err: err}
		}
		var extract ChunkExtract
		if err := llm.DecodeLLMJSON(content, &extract); err != nil {
			logging.WarnWithContext(logger, "chunk notes unparseable; using empty notes",
				"map_parse_failed",
				logging.Int(logging.FieldChunk, i+1),
				logging.Int(logging.FieldChunkTotal, total),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the model ignored the JSON instruction; try another model"),
				logging.String(logging.FieldImpact, "summary omits this chunk's content"),
			)
			extract = ChunkExtract{}
		}
		extracts = append(extracts, extract.normalized())
	}
	return extracts, nil
}

func (s *Summarizer) reduceMarkdown(ctx context.Context, logger *slog.Logger, extracts []ChunkExtract, opts Options) (string, error) {
	prompt, err := ReducePrompt(opts.Title, opts.SourceURL, extracts, Markdown)
	if err != nil {
		return "", &PhaseError{Phase: PhaseReduce, Representation: Markdown.String(), Err: err}
	}
	content, err := s.client.Complete(ctx, llm.Request{
		Model:        opts.Model,
		SystemPrompt: ReduceSystemPrompt,
		UserPrompt:   prompt,
		Temperature:  opts.Temperature,
	})
	if err != nil {
		return "", &PhaseError{Phase: PhaseReduce, Representation: Markdown.String(), Err: err}
	}
	md := strings.TrimSpace(llm.StripCodeFence(content))
	if missing := MissingSections(md); len(missing) > 0 {
		logging.WarnWithContext(logger, "markdown summary is missing sections",
			"markdown_sections_missing",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldErrorHint, "rerun with --force or request md+json for a validated summary"),
			logging.String(logging.FieldImpact, "markdown output is incomplete"),
		)
	}
	return md, nil
}

func (s *Summarizer) reduceStructured(ctx context.Context, extracts []ChunkExtract, opts Options) (*Summary, error) {
	fail := func(err error) (*Summary, error) {
		return nil, &PhaseError{Phase: PhaseReduce, Representation: Structured.String(), Err: err}
	}
	prompt, err := ReducePrompt(opts.Title, opts.SourceURL, extracts, Structured)
	if err != nil {
		return fail(err)
	}
	req := llm.Request{
		Model:        opts.Model,
		SystemPrompt: ReduceSystemPrompt,
		UserPrompt:   prompt,
		Temperature:  opts.Temperature,
	}
	if s.client.SupportsSchema() {
		req.Schema = &llm.Schema{Name: "video_summary", Definition: SummarySchema}
	}
	content, err := s.client.Complete(ctx, req)
	if err != nil {
		return fail(err)
	}
	var summary Summary
	if err := llm.DecodeLLMJSON(content, &summary); err != nil {
		return fail(err)
	}
	if strings.TrimSpace(summary.Title) == "" {
		summary.Title = opts.Title
	}
	if strings.TrimSpace(summary.SourceURL) == "" {
		summary.SourceURL = opts.SourceURL
	}
	if err := summary.Validate(); err != nil {
		return fail(err)
	}
	return &summary, nil
}

func (e ChunkExtract) normalized() ChunkExtract {
	if e.KeyPoints == nil {
		e.KeyPoints = []string{}
	}
	if e.Quotes == nil {
		e.Quotes = []string{}
	}
	if e.Topics == nil {
		e.Topics = []string{}
	}
	if e.Terms == nil {
		e.Terms = Terms{}
	}
	return e
}

// duplicateThreshold is the fingerprint similarity above which a key point or
// quote is treated as a restatement of an earlier one.
const duplicateThreshold = 0.9

// dedupeExtracts removes key points and quotes that repeat notes from earlier
// chunks, in place, and returns how many were dropped.
func dedupeExtracts(extracts []ChunkExtract) int {
	points := textutil.NewDeduper(duplicateThreshold)
	quotes := textutil.NewDeduper(duplicateThreshold)
	dropped := 0
	for i := range extracts {
		before := len(extracts[i].KeyPoints) + len(extracts[i].Quotes)
		extracts[i].KeyPoints = points.Filter(extracts[i].KeyPoints)
		extracts[i].Quotes = quotes.Filter(extracts[i].Quotes)
		dropped += before - len(extracts[i].KeyPoints) - len(extracts[i].Quotes)
	}
	return dropped
}
