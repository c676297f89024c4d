package summarize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MapSystemPrompt frames every map-phase extraction request.
const MapSystemPrompt = `You extract notes from one chunk of a video transcript. You respond with a single JSON object and nothing else.`

// ReduceSystemPrompt frames every reduce-phase merge request.
const ReduceSystemPrompt = `You write the final summary of a video from notes taken on consecutive transcript chunks. Merge duplicates, keep the speaker's meaning, and never invent facts that are not in the notes.`

const mapPromptTemplate = `This is chunk %d of %d of a video transcript.

Extract from this chunk:
- key_points: the substantive points made, one short sentence each
- quotes: exact sentences worth highlighting, copied verbatim
- topics: candidate chapter headings, with an approximate timestamp if one is spoken
- terms: technical terms or concepts that need a definition

Be concise and skip filler. Use empty lists when a chunk has nothing to offer.

Respond with JSON shaped like:
{"key_points": ["..."], "quotes": ["..."], "topics": ["..."], "terms": [{"term": "...", "definition": "..."}]}

TRANSCRIPT CHUNK:
%s`

const reducePromptTemplate = `Video title: %s
Source URL: %s

Below are notes taken on each chunk of the transcript, in order. Deduplicate and merge them into one cohesive summary.

CHUNK NOTES:
%s

The summary has:
1. TL;DR: exactly 3 bullets capturing the essence
2. Key points: the 8-12 most important takeaways
3. Chapters: 3-6 logical sections, each with a start marker, a heading and bullets
4. Quotes: up to 5 of the best quotes
5. Action items: 3-7 practical next steps for the viewer
6. Tags: 5-10 topic tags

OUTPUT FORMAT:
%s`

const markdownFormatTemplate = `Clean Markdown with exactly these sections and nothing around it:
# %s
[Source](%s)

## TL;DR
- ...

## Key Points
- ...

## Chapters
### Chapter 1: ...
- ...

## Notable Quotes
> "..."

## Action Items
- [ ] ...

## Glossary
- **Term**: Definition`

const jsonFormatInstruction = `A single JSON object matching this shape:
{
  "title": "string",
  "source_url": "string",
  "tldr": ["string"],
  "key_points": ["string"],
  "chapters": [{"start": "string", "heading": "string", "bullets": ["string"]}],
  "quotes": ["string"],
  "action_items": ["string"],
  "tags": ["string"]
}`

// MapPrompt builds the extraction request for chunk index (zero based) of total.
func MapPrompt(chunk string, index, total int) string {
	return fmt.Sprintf(mapPromptTemplate, index+1, total, strings.TrimSpace(chunk))
}

// ReducePrompt builds the merge request for one representation.
func ReducePrompt(title, sourceURL string, extracts []ChunkExtract, rep Representation) (string, error) {
	notes, err := json.MarshalIndent(extracts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode chunk notes: %w", err)
	}
	if title == "" {
		title = "Untitled"
	}
	if sourceURL == "" {
		sourceURL = "n/a"
	}
	format := jsonFormatInstruction
	if rep == Markdown {
		format = fmt.Sprintf(markdownFormatTemplate, title, sourceURL)
	}
	return fmt.Sprintf(reducePromptTemplate, title, sourceURL, notes, format), nil
}
