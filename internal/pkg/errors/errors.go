// Package errors defines the sentinel error taxonomy the pipeline classifies
// every failure into (see the error-handling design): categories 1-3 and 5
// are caught at the per-gazette boundary, category 4 aborts the run.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFileType marks a binary whose MIME type the extractor
	// will never handle (e.g. zip). Not retried.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrInvalidInput marks malformed input (bad MIME sniff, unparsable
	// theme definition row, etc). Not retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing object-store key or relational row. The
	// caller skips the document without retrying.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks a network timeout, connection refusal, premature
	// close, or 5xx/429 response. Callers retry with exponential backoff.
	ErrTransient = errors.New("transient failure")
	// ErrFatalConfig marks a missing required env var, an unparsable theme
	// file, or an unresolved territory slug. The run aborts immediately.
	ErrFatalConfig = errors.New("fatal configuration error")
)

// Category is the coarse bucket an error falls into for retry/skip/abort
// decisions by the orchestrator.
type Category int

const (
	CategoryUnknown       Category = iota
	CategorySkip                   // unsupported type, invalid input, not found
	CategoryTransient              // retryable
	CategoryFatalConfig            // abort the run
	CategoryFatalDocument          // skip this document, do not mark processed
)

// Classify maps an error (possibly wrapped) to the category the
// orchestrator should react to. Unrecognized errors default to
// CategoryFatalDocument so that unexpected failures skip rather than
// silently succeed.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound):
		return CategorySkip
	case errors.Is(err, ErrTransient):
		return CategoryTransient
	case errors.Is(err, ErrFatalConfig):
		return CategoryFatalConfig
	default:
		return CategoryFatalDocument
	}
}

// Wrap attaches msg as context to err while preserving its sentinel so
// errors.Is/errors.As keep working up the call stack.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Transient wraps err so errors.Is(err, ErrTransient) succeeds.
func Transient(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrTransient, err)
}

// NotFound wraps err so errors.Is(err, ErrNotFound) succeeds.
func NotFound(msg string, err error) error {
	if err == nil {
		err = ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrNotFound, err)
}

// FatalConfig wraps err so errors.Is(err, ErrFatalConfig) succeeds.
func FatalConfig(msg string, err error) error {
	if err == nil {
		err = ErrFatalConfig
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrFatalConfig, err)
}
