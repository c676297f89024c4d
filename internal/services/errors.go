package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnavailable   = errors.New("transcript unavailable")
	ErrToolMissing   = errors.New("required tool missing")
	ErrTranscription = errors.New("transcription failed")
	ErrSummarization = errors.New("summarization failed")
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
)

// Kind is the failure category of an error produced anywhere in the pipeline.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnavailable
	KindToolMissing
	KindTranscription
	KindSummarization
	KindConfiguration
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindToolMissing:
		return "tool_missing"
	case KindTranscription:
		return "transcription"
	case KindSummarization:
		return "summarization"
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// KindOf classifies err by the first marker it carries.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrToolMissing):
		return KindToolMissing
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrTranscription):
		return KindTranscription
	case errors.Is(err, ErrSummarization):
		return KindSummarization
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ToolMissingError reports an absent external binary with install guidance.
type ToolMissingError struct {
	Tool        string
	Remediation string
	Err         error
}

func (e *ToolMissingError) Error() string {
	msg := fmt.Sprintf("%s not found", e.Tool)
	if e.Remediation != "" {
		msg += ". " + e.Remediation
	}
	return msg
}

func (e *ToolMissingError) Unwrap() error { return e.Err }

func (e *ToolMissingError) Is(target error) bool { return target == ErrToolMissing }

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
