package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrieval marks embedding or vector-index failures. Surfaced to the
	// caller as a request failure, never retried at the use-case layer.
	ErrRetrieval = errors.New("retrieval failure")
	// ErrGeneration marks text-generation failures. Query expansion degrades
	// gracefully on it; answer synthesis reports it without discarding the
	// already-retrieved sources.
	ErrGeneration = errors.New("generation failure")

	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
