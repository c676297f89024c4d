package testsupport

import (
	"context"
	"strings"
	"sync"

	"ytsummarize/internal/services/llm"
)

// ChunkExtractReply is a well-formed map-phase reply.
const ChunkExtractReply = `{"key_points":["The speaker explains caching."],"quotes":["Cache everything."],"topics":["Caching"],"terms":{"TTL":"time to live"}}`

// MarkdownReply is a well-formed markdown reduce reply.
const MarkdownReply = "# Test\n[Source](https://example.com)\n\n## TL;DR\n- a\n- b\n- c\n\n## Key Points\n- k\n\n## Chapters\n### Chapter 1: Intro\n- x\n\n## Notable Quotes\n> \"Cache everything.\"\n\n## Action Items\n- [ ] try it\n\n## Glossary\n- **TTL**: time to live\n"

// SummaryReply is a structured reduce reply that passes validation.
const SummaryReply = `{"title":"Test","source_url":"https://example.com","tldr":["a","b","c"],"key_points":["1","2","3","4","5","6","7","8"],"chapters":[{"start":"00:00","heading":"One","bullets":["x"]},{"start":"01:00","heading":"Two","bullets":["y"]},{"start":"02:00","heading":"Three","bullets":["z"]}],"quotes":["Cache everything."],"action_items":["a","b","c"],"tags":["t1","t2","t3","t4","t5"]}`

// ChatStub is an llm.Client that answers map requests with
// ChunkExtractReply and reduce requests with MarkdownReply or SummaryReply,
// depending on which output format the prompt asks for.
type ChatStub struct {
	mu       sync.Mutex
	Err      error
	Schema   bool
	Requests []llm.Request
}

// Complete implements llm.Client.
func (c *ChatStub) Complete(_ context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	err := c.Err
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	switch {
	case strings.Contains(req.UserPrompt, "TRANSCRIPT CHUNK"):
		return ChunkExtractReply, nil
	case strings.Contains(req.UserPrompt, "Clean Markdown"):
		return MarkdownReply, nil
	default:
		return SummaryReply, nil
	}
}

// SupportsSchema implements llm.Client.
func (c *ChatStub) SupportsSchema() bool { return c.Schema }

// Provider implements llm.Client.
func (c *ChatStub) Provider() string { return "stub" }

// Calls returns the number of completions requested so far.
func (c *ChatStub) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}
