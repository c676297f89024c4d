package summarize

import (
	"fmt"

	"ytsummarize/internal/services"
)

// Phase names a stage of the map-reduce summarizer.
type Phase string

const (
	PhaseMap    Phase = "map"
	PhaseReduce Phase = "reduce"
)

// PhaseError reports which phase failed and, for the map phase, which chunk.
// It matches services.ErrSummarization under errors.Is.
type PhaseError struct {
	Phase Phase
	// Chunk is the 1-based ordinal of the failing chunk; zero in the reduce phase.
	Chunk          int
	Total          int
	Representation string
	Err            error
}

func (e *PhaseError) Error() string {
	if e.Phase == PhaseMap {
		return fmt.Sprintf("%s: map phase failed on chunk %d/%d: %v", services.ErrSummarization, e.Chunk, e.Total, e.Err)
	}
	return fmt.Sprintf("%s: reduce phase (%s) failed: %v", services.ErrSummarization, e.Representation, e.Err)
}

func (e *PhaseError) Unwrap() []error {
	return []error{services.ErrSummarization, e.Err}
}
