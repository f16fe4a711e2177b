package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals a missing credential or store setting.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmbedding signals a failed embedding computation.
	ErrEmbedding = errors.New("embedding error")
	// ErrStoreQuery signals a failed vector search or metadata scan.
	ErrStoreQuery = errors.New("store query error")
	// ErrGeneration signals a failed, timed out or malformed generative call.
	ErrGeneration = errors.New("generation error")
	// ErrQuotaExceeded signals an exhausted token budget.
	ErrQuotaExceeded = errors.New("token budget exceeded")
	// ErrEmptyQuestion signals a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Stage names the pipeline step that failed.
type Stage string

const (
	// StageEmbedding is the question vectorization step.
	StageEmbedding Stage = "embedding"
	// StageStore is the vector search or metadata scan step.
	StageStore Stage = "store"
)

// RetrievalError aborts the pipeline before synthesis. Cause wraps ErrEmbedding or ErrStoreQuery.
type RetrievalError struct {
	Stage Stage
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Cause)
}

func (e *RetrievalError) Unwrap() error { return e.Cause }

// NewEmbeddingFailure wraps err as a retrieval failure of the embedding stage.
func NewEmbeddingFailure(err error) error {
	return &RetrievalError{Stage: StageEmbedding, Cause: wrapOnce(err, ErrEmbedding)}
}

// NewStoreFailure wraps err as a retrieval failure of the store stage.
func NewStoreFailure(err error) error {
	return &RetrievalError{Stage: StageStore, Cause: wrapOnce(err, ErrStoreQuery)}
}

// NewGenerationFailure classifies err as a synthesis failure.
func NewGenerationFailure(err error) error {
	if errors.Is(err, ErrConfiguration) {
		return err
	}
	return wrapOnce(err, ErrGeneration)
}

// IsRetrievalError reports whether err came out of the retrieval stage.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

func wrapOnce(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
