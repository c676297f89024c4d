// Package costs estimates the API spend of summarization and transcription
// runs so the CLI can warn before expensive work starts.
package costs

import (
	"fmt"
	"strings"

	"ytsummarize/internal/chunker"
)

// Warning thresholds.
const (
	WarnTranscriptTokens = 50_000
	WarnAudioMinutes     = 30
	WarnEstimatedCost    = 0.50
)

// Per-call overhead assumed by the estimate.
const (
	mapPromptTokens    = 500
	mapOutputTokens    = 200
	reducePromptTokens = 1000
	reduceOutputTokens = 2000
)

const (
	fallbackChatModel  = "gpt-4o-mini"
	fallbackAudioModel = "whisper-1"
)

// TokenPrice is USD per one million tokens.
type TokenPrice struct {
	Input  float64
	Output float64
}

var chatPrices = map[string]TokenPrice{
	"gpt-4o-mini": {Input: 0.15, Output: 0.60},
	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-4-turbo": {Input: 10.00, Output: 30.00},
	"gpt-5-mini":  {Input: 0.25, Output: 2.00},
}

// USD per minute of audio.
var audioPrices = map[string]float64{
	"whisper-1":              0.006,
	"gpt-4o-transcribe":      0.006,
	"gpt-4o-mini-transcribe": 0.003,
}

// SummarizationEstimate is the projected cost of a map-reduce run.
type SummarizationEstimate struct {
	Model        string
	Tokens       int
	Chunks       int
	InputTokens  int
	OutputTokens int
	Cost         float64
	ShouldWarn   bool
}

// TranscriptionEstimate is the projected cost of a speech-to-text run.
type TranscriptionEstimate struct {
	Model      string
	Minutes    float64
	Cost       float64
	ShouldWarn bool
}

// ChatPrice returns the price for model, falling back to gpt-4o-mini. Models
// routed through a gateway ("openai/gpt-4o") are matched on their last
// path segment.
func ChatPrice(model string) TokenPrice {
	if price, ok := chatPrices[normalizeModel(model)]; ok {
		return price
	}
	return chatPrices[fallbackChatModel]
}

// AudioPrice returns the per-minute price for model, falling back to whisper-1.
func AudioPrice(model string) float64 {
	if price, ok := audioPrices[normalizeModel(model)]; ok {
		return price
	}
	return audioPrices[fallbackAudioModel]
}

// EstimateSummarization projects the cost of summarizing text. The chunk
// count comes from the chunker itself so the estimate matches the run.
// reduceCalls is the number of requested representations.
func EstimateSummarization(text string, chunkTokens int, model string, reduceCalls int) SummarizationEstimate {
	tokens := chunker.EstimateTokens(text)
	chunks := len(chunker.Split(text, chunkTokens))
	if chunks < 1 {
		chunks = 1
	}
	if reduceCalls < 1 {
		reduceCalls = 1
	}
	mapInput := chunks * (chunkTokens + mapPromptTokens)
	mapOutput := chunks * mapOutputTokens
	reduceInput := reduceCalls * (chunks*mapOutputTokens + reducePromptTokens)
	reduceOutput := reduceCalls * reduceOutputTokens

	price := ChatPrice(model)
	input := mapInput + reduceInput
	output := mapOutput + reduceOutput
	cost := float64(input)/1_000_000*price.Input + float64(output)/1_000_000*price.Output
	return SummarizationEstimate{
		Model:        model,
		Tokens:       tokens,
		Chunks:       chunks,
		InputTokens:  input,
		OutputTokens: output,
		Cost:         cost,
		ShouldWarn:   tokens > WarnTranscriptTokens || cost > WarnEstimatedCost,
	}
}

// EstimateTranscription projects the cost of transcribing seconds of audio.
func EstimateTranscription(seconds float64, model string) TranscriptionEstimate {
	minutes := seconds / 60
	cost := minutes * AudioPrice(model)
	return TranscriptionEstimate{
		Model:      model,
		Minutes:    minutes,
		Cost:       cost,
		ShouldWarn: minutes > WarnAudioMinutes || cost > WarnEstimatedCost,
	}
}

// Details renders the estimate inputs for FormatWarning.
func (e SummarizationEstimate) Details() string {
	return fmt.Sprintf("%d tokens in %d chunk(s) with %s", e.Tokens, e.Chunks, e.Model)
}

// Details renders the estimate inputs for FormatWarning.
func (e TranscriptionEstimate) Details() string {
	return fmt.Sprintf("%.0f min of audio with %s", e.Minutes, e.Model)
}

// FormatWarning renders a user-facing cost warning.
func FormatWarning(operation string, cost float64, details string) string {
	msg := fmt.Sprintf("%s may cost approximately $%.3f", operation, cost)
	if details = strings.TrimSpace(details); details != "" {
		msg += "\n   " + details
	}
	return msg
}

func normalizeModel(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		model = model[idx+1:]
	}
	return model
}
