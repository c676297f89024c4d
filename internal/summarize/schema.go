package summarize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"ytsummarize/internal/services"
)

// Chapter is one section of the structured summary.
type Chapter struct {
	Start   string   `json:"start"`
	Heading string   `json:"heading"`
	Bullets []string `json:"bullets"`
}

// Summary is the structured summary produced by the reduce phase.
type Summary struct {
	Title       string    `json:"title"`
	SourceURL   string    `json:"source_url"`
	TLDR        []string  `json:"tldr"`
	KeyPoints   []string  `json:"key_points"`
	Chapters    []Chapter `json:"chapters"`
	Quotes      []string  `json:"quotes"`
	ActionItems []string  `json:"action_items"`
	Tags        []string  `json:"tags"`
}

type bound struct {
	field    string
	got      int
	min, max int
}

// Validate checks the cardinality rules of the summary schema.
func (s Summary) Validate() error {
	var problems []string
	if strings.TrimSpace(s.Title) == "" {
		problems = append(problems, "title is empty")
	}
	bounds := []bound{
		{"tldr", len(s.TLDR), 3, 3},
		{"key_points", len(s.KeyPoints), 8, 12},
		{"chapters", len(s.Chapters), 3, 6},
		{"quotes", len(s.Quotes), 0, 5},
		{"action_items", len(s.ActionItems), 3, 7},
		{"tags", len(s.Tags), 5, 10},
	}
	for _, b := range bounds {
		if b.got < b.min || b.got > b.max {
			if b.min == b.max {
				problems = append(problems, fmt.Sprintf("%s has %d items, want exactly %d", b.field, b.got, b.min))
			} else {
				problems = append(problems, fmt.Sprintf("%s has %d items, want %d-%d", b.field, b.got, b.min, b.max))
			}
		}
	}
	for i, ch := range s.Chapters {
		if strings.TrimSpace(ch.Heading) == "" {
			problems = append(problems, fmt.Sprintf("chapter %d has no heading", i+1))
		}
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "summary", "schema", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Term is a glossary entry extracted from a chunk.
type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Terms decodes either an object of term to definition or an array of
// {term, definition} objects, keeping document order.
type Terms []Term

// UnmarshalJSON implements json.Unmarshaler.
func (t *Terms) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = nil
		return nil
	case data[0] == '[':
		var list []Term
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = list
		return nil
	case data[0] == '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil {
			return err
		}
		var out Terms
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			var value any
			if err := dec.Decode(&value); err != nil {
				return err
			}
			def, ok := value.(string)
			if !ok {
				def = fmt.Sprint(value)
			}
			out = append(out, Term{Term: key, Definition: def})
		}
		*t = out
		return nil
	}
	return fmt.Errorf("terms: unexpected json %q", summarizeSnippet(data))
}

// ChunkExtract is the map-phase output for one chunk.
type ChunkExtract struct {
	KeyPoints []string `json:"key_points"`
	Quotes    []string `json:"quotes"`
	Topics    []string `json:"topics"`
	Terms     Terms    `json:"terms"`
}

func (e ChunkExtract) empty() bool {
	return len(e.KeyPoints) == 0 && len(e.Quotes) == 0 && len(e.Topics) == 0 && len(e.Terms) == 0
}

func summarizeSnippet(data []byte) string {
	const limit = 60
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

var stringArray = json.RawMessage(`{"type":"array","items":{"type":"string"}}`)

func arrayBetween(minItems, maxItems int) json.RawMessage {
	if maxItems < 0 {
		return json.RawMessage(fmt.Sprintf(`{"type":"array","items":{"type":"string"},"minItems":%d}`, minItems))
	}
	return json.RawMessage(fmt.Sprintf(`{"type":"array","items":{"type":"string"},"minItems":%d,"maxItems":%d}`, minItems, maxItems))
}

func objectSchema(properties map[string]json.RawMessage, order []string) json.RawMessage {
	props := make(map[string]json.RawMessage, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	payload, _ := json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             order,
		"additionalProperties": false,
	})
	return payload
}

// ChunkExtractSchema is the strict JSON schema for map-phase responses.
var ChunkExtractSchema = objectSchema(map[string]json.RawMessage{
	"key_points": stringArray,
	"quotes":     stringArray,
	"topics":     stringArray,
	"terms": json.RawMessage(`{"type":"array","items":` + string(objectSchema(map[string]json.RawMessage{
		"term":       json.RawMessage(`{"type":"string"}`),
		"definition": json.RawMessage(`{"type":"string"}`),
	}, []string{"term", "definition"})) + `}`),
}, []string{"key_points", "quotes", "topics", "terms"})

// SummarySchema is the strict JSON schema for the structured reduce response.
var SummarySchema = objectSchema(map[string]json.RawMessage{
	"title":      json.RawMessage(`{"type":"string"}`),
	"source_url": json.RawMessage(`{"type":"string"}`),
	"tldr":       arrayBetween(3, 3),
	"key_points": arrayBetween(8, 12),
	"chapters": json.RawMessage(fmt.Sprintf(`{"type":"array","minItems":3,"maxItems":6,"items":%s}`, objectSchema(map[string]json.RawMessage{
		"start":   json.RawMessage(`{"type":"string"}`),
		"heading": json.RawMessage(`{"type":"string"}`),
		"bullets": stringArray,
	}, []string{"start", "heading", "bullets"}))),
	"quotes":       arrayBetween(0, 5),
	"action_items": arrayBetween(3, 7),
	"tags":         arrayBetween(5, 10),
}, []string{"title", "source_url", "tldr", "key_points", "chapters", "quotes", "action_items", "tags"})
