package summarize

import (
	"fmt"
	"strings"

	"ytsummarize/internal/cache"
	"ytsummarize/internal/services"
)

// Representation selects the summary renderings to produce.
type Representation = cache.Representation

const (
	Markdown   = cache.Markdown
	Structured = cache.Structured
	Both       = cache.Both
)

// ParseRepresentation accepts md, json, md+json, or md,json.
func ParseRepresentation(value string) (Representation, error) {
	return cache.ParseRepresentation(value)
}

const (
	DefaultChunkTokens = 3000
	DefaultTemperature = 0.2
)

// Options configures one summarization run. Build it with NewOptions.
type Options struct {
	Title           string
	SourceURL       string
	Model           string
	ChunkTokens     int
	Representations Representation
	Temperature     float64
}

// NewOptions applies defaults to o and validates the result.
func NewOptions(o Options) (Options, error) {
	o.Title = strings.TrimSpace(o.Title)
	o.SourceURL = strings.TrimSpace(o.SourceURL)
	o.Model = strings.TrimSpace(o.Model)
	if o.ChunkTokens == 0 {
		o.ChunkTokens = DefaultChunkTokens
	}
	if o.Representations == 0 {
		o.Representations = Markdown
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	var problems []string
	if o.ChunkTokens <= 0 {
		problems = append(problems, fmt.Sprintf("chunk tokens must be positive (got %d)", o.ChunkTokens))
	}
	if o.Representations&^Both != 0 || o.Representations == 0 {
		problems = append(problems, fmt.Sprintf("invalid representation set %d", o.Representations))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("temperature must be between 0 and 2 (got %.2f)", o.Temperature))
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "summarize", "options", strings.Join(problems, "; "), nil)
	}
	return nil
}
