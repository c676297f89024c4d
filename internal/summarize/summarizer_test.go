package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ytsummarize/internal/services"
	"ytsummarize/internal/services/llm"
	"ytsummarize/internal/services/retry"
)

type fakeClient struct {
	mu       sync.Mutex
	schema   bool
	requests []llm.Request
	respond  func(call int, req llm.Request) (string, error)
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	call := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(call, req)
}

func (f *fakeClient) SupportsSchema() bool { return f.schema }

func (f *fakeClient) Provider() string { return "fake" }

const extractJSON = `{"key_points":["Point A"],"quotes":["Quote A"],"topics":["Intro"],"terms":{"API":"Application programming interface"}}`

const summaryJSON = `{
  "title": "Test Video",
  "source_url": "https://www.youtube.com/watch?v=abc123def45",
  "tldr": ["one", "two", "three"],
  "key_points": ["k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8"],
  "chapters": [
    {"start": "00:00", "heading": "Intro", "bullets": ["b"]},
    {"start": "05:00", "heading": "Middle", "bullets": ["b"]},
    {"start": "10:00", "heading": "End", "bullets": ["b"]}
  ],
  "quotes": ["q1"],
  "action_items": ["a1", "a2", "a3"],
  "tags": ["t1", "t2", "t3", "t4", "t5"]
}`

const markdownReply = "```markdown\n# Test Video\n[Source](https://example.com)\n\n## TL;DR\n- one\n\n## Key Points\n- k\n\n## Chapters\n### Chapter 1: Intro\n- b\n\n## Notable Quotes\n> \"q\"\n\n## Action Items\n- [ ] do\n\n## Glossary\n- **API**: interface\n```"

func routedClient(schema bool) *fakeClient {
	return &fakeClient{
		schema: schema,
		respond: func(_ int, req llm.Request) (string, error) {
			switch {
			case req.SystemPrompt == MapSystemPrompt:
				return extractJSON, nil
			case strings.Contains(req.UserPrompt, "Clean Markdown"):
				return markdownReply, nil
			default:
				return summaryJSON, nil
			}
		},
	}
}

func testOptions(t *testing.T, reps Representation) Options {
	t.Helper()
	opts, err := NewOptions(Options{
		Title:           "Test Video",
		SourceURL:       "https://www.youtube.com/watch?v=abc123def45",
		Model:           "gpt-4o-mini",
		Representations: reps,
		Temperature:     DefaultTemperature,
	})
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	return opts
}

func TestSummarizeMarkdownOnly(t *testing.T) {
	client := routedClient(false)
	result, err := New(client, nil).Summarize(context.Background(), "A short transcript. It has two sentences.", testOptions(t, Markdown))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(client.requests) != 2 {
		t.Fatalf("expected map + 1 reduce call, got %d", len(client.requests))
	}
	if strings.HasPrefix(result.Markdown, "```") || !strings.HasPrefix(result.Markdown, "# Test Video") {
		t.Fatalf("code fence not stripped: %q", result.Markdown)
	}
	if result.Structured != nil {
		t.Fatalf("unexpected structured output")
	}
	if result.Chunks != 1 {
		t.Fatalf("chunks = %d", result.Chunks)
	}
}

func TestSummarizeBothRepresentationsInOrder(t *testing.T) {
	client := routedClient(false)
	result, err := New(client, nil).Summarize(context.Background(), "Some transcript text.", testOptions(t, Both))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(client.requests) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(client.requests))
	}
	if client.requests[0].SystemPrompt != MapSystemPrompt {
		t.Fatalf("first call should be map")
	}
	if !strings.Contains(client.requests[1].UserPrompt, "Clean Markdown") {
		t.Fatalf("second call should be the markdown reduce")
	}
	if !strings.Contains(client.requests[2].UserPrompt, `"tldr"`) {
		t.Fatalf("third call should be the json reduce")
	}
	if !strings.Contains(client.requests[1].UserPrompt, "Application programming interface") {
		t.Fatalf("reduce prompt should carry chunk notes: %s", client.requests[1].UserPrompt)
	}
	if result.Markdown == "" || result.Structured == nil {
		t.Fatalf("expected both representations")
	}
	if got := len(result.Structured.KeyPoints); got != 8 {
		t.Fatalf("key points = %d", got)
	}
	data, err := result.JSON()
	if err != nil || !strings.Contains(string(data), `"action_items"`) {
		t.Fatalf("JSON() = %s, %v", data, err)
	}
}

func TestSummarizeSchemaMode(t *testing.T) {
	client := routedClient(true)
	if _, err := New(client, nil).Summarize(context.Background(), "Text.", testOptions(t, Both)); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s := client.requests[0].Schema; s == nil || s.Name != "chunk_extract" {
		t.Fatalf("map request schema = %+v", s)
	}
	if client.requests[1].Schema != nil {
		t.Fatalf("markdown reduce must not carry a schema")
	}
	if s := client.requests[2].Schema; s == nil || s.Name != "video_summary" {
		t.Fatalf("json reduce schema = %+v", s)
	}
}

func TestSummarizeNoSchemaWithoutSupport(t *testing.T) {
	client := routedClient(false)
	if _, err := New(client, nil).Summarize(context.Background(), "Text.", testOptions(t, Structured)); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	for i, req := range client.requests {
		if req.Schema != nil {
			t.Fatalf("request %d carried a schema", i)
		}
	}
}

func TestSummarizeMapParseFailureDegrades(t *testing.T) {
	client := routedClient(false)
	client.respond = func(_ int, req llm.Request) (string, error) {
		if req.SystemPrompt == MapSystemPrompt {
			return "not json at all", nil
		}
		return markdownReply, nil
	}
	if _, err := New(client, nil).Summarize(context.Background(), "Text.", testOptions(t, Markdown)); err != nil {
		t.Fatalf("parse failure should not abort: %v", err)
	}
	if !strings.Contains(client.requests[1].UserPrompt, `"key_points": []`) {
		t.Fatalf("expected empty extract in reduce prompt: %s", client.requests[1].UserPrompt)
	}
}

func TestSummarizeMapFailureNamesChunk(t *testing.T) {
	boom := errors.New("upstream exploded")
	client := routedClient(false)
	client.respond = func(call int, req llm.Request) (string, error) {
		if call == 1 {
			return "", boom
		}
		return extractJSON, nil
	}
	text := strings.Repeat("This sentence is long enough to count for several tokens. ", 40)
	opts := testOptions(t, Markdown)
	opts.ChunkTokens = 100
	_, err := New(client, nil).Summarize(context.Background(), text, opts)
	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) {
		t.Fatalf("expected PhaseError, got %v", err)
	}
	if phaseErr.Phase != PhaseMap || phaseErr.Chunk != 2 || phaseErr.Total < 3 {
		t.Fatalf("unexpected phase error %+v", phaseErr)
	}
	if !errors.Is(err, services.ErrSummarization) || !errors.Is(err, boom) {
		t.Fatalf("error should match ErrSummarization and cause: %v", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("chunk 2/%d", phaseErr.Total)) {
		t.Fatalf("message should name chunk: %v", err)
	}
	if len(client.requests) != 2 {
		t.Fatalf("map should stop at the failing chunk, got %d calls", len(client.requests))
	}
}

func TestSummarizeMapFailureAfterRetriesNamesChunk(t *testing.T) {
	fake := routedClient(false)
	fake.respond = func(call int, req llm.Request) (string, error) {
		if call >= 1 {
			return "", &retry.StatusError{Provider: "fake", StatusCode: 503, Body: "overloaded"}
		}
		return extractJSON, nil
	}
	var sleeps []time.Duration
	policy := retry.Default()
	policy.Sleeper = func(d time.Duration) { sleeps = append(sleeps, d) }
	client := llm.WithRetry(fake, policy)

	text := strings.Repeat("This sentence is long enough to count for several tokens. ", 40)
	opts := testOptions(t, Markdown)
	opts.ChunkTokens = 100
	_, err := New(client, nil).Summarize(context.Background(), text, opts)

	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) {
		t.Fatalf("expected PhaseError, got %v", err)
	}
	if phaseErr.Phase != PhaseMap || phaseErr.Chunk != 2 || phaseErr.Total < 3 {
		t.Fatalf("unexpected phase error %+v", phaseErr)
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != retry.DefaultMaxAttempts {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("chunk 2/%d", phaseErr.Total)) {
		t.Fatalf("message should name chunk: %v", err)
	}
	if len(fake.requests) != 1+retry.DefaultMaxAttempts {
		t.Fatalf("expected %d calls, got %d", 1+retry.DefaultMaxAttempts, len(fake.requests))
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if fmt.Sprint(sleeps) != fmt.Sprint(want) {
		t.Fatalf("sleeps = %v, want %v", sleeps, want)
	}
}

func TestSummarizeStructuredValidationFailure(t *testing.T) {
	client := routedClient(false)
	client.respond = func(_ int, req llm.Request) (string, error) {
		if req.SystemPrompt == MapSystemPrompt {
			return extractJSON, nil
		}
		return `{"title":"x","source_url":"","tldr":["only one"],"key_points":[],"chapters":[],"quotes":[],"action_items":[],"tags":[]}`, nil
	}
	_, err := New(client, nil).Summarize(context.Background(), "Text.", testOptions(t, Structured))
	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) || phaseErr.Phase != PhaseReduce {
		t.Fatalf("expected reduce PhaseError, got %v", err)
	}
	if !errors.Is(err, services.ErrSummarization) {
		t.Fatalf("expected ErrSummarization: %v", err)
	}
	if !strings.Contains(err.Error(), "reduce phase (json)") {
		t.Fatalf("message should name reduce phase: %v", err)
	}
}

func TestSummarizeEmptyTranscript(t *testing.T) {
	client := routedClient(false)
	_, err := New(client, nil).Summarize(context.Background(), "   \n", testOptions(t, Markdown))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(client.requests) != 0 {
		t.Fatalf("no model call expected, got %d", len(client.requests))
	}
}

func TestNewOptionsValidation(t *testing.T) {
	opts, err := NewOptions(Options{})
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if opts.ChunkTokens != DefaultChunkTokens || opts.Representations != Markdown {
		t.Fatalf("defaults not applied: %+v", opts)
	}
	if _, err := NewOptions(Options{ChunkTokens: -5}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("negative chunk tokens should fail: %v", err)
	}
	if _, err := NewOptions(Options{Temperature: 3}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("temperature out of range should fail: %v", err)
	}
}

func TestDedupeExtractsDropsRepeatedNotes(t *testing.T) {
	extracts := []ChunkExtract{
		{KeyPoints: []string{"Cache everything that is expensive to fetch."}, Quotes: []string{"Cache everything."}},
		{KeyPoints: []string{"cache everything that is expensive to fetch", "Retries use exponential backoff."}, Quotes: []string{"Cache everything!"}},
	}
	if dropped := dedupeExtracts(extracts); dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if len(extracts[0].KeyPoints) != 1 || len(extracts[0].Quotes) != 1 {
		t.Fatalf("first chunk should be untouched: %+v", extracts[0])
	}
	if len(extracts[1].KeyPoints) != 1 || extracts[1].KeyPoints[0] != "Retries use exponential backoff." {
		t.Fatalf("unexpected second chunk key points: %v", extracts[1].KeyPoints)
	}
	if len(extracts[1].Quotes) != 0 {
		t.Fatalf("repeated quote should be dropped: %v", extracts[1].Quotes)
	}
}
