// Package store persists diagram documents by ID.
//
// Two backends implement [Store]: [FileStore] keeps one JSON file per
// diagram in a directory, [RedisStore] keeps documents as Redis strings
// under a key prefix. Documents are opaque bytes here; pkg/io produces and
// consumes them.
package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/matzehuels/erkit/pkg/errors"
)

// ErrNotFound is returned when no document exists for an ID.
var ErrNotFound = stderrors.New("document not found")

// Store is a document store.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, doc []byte) error
	Delete(ctx context.Context, id string) error
	// List returns every stored ID in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

func notFound(id string) error {
	return errors.Wrap(errors.ErrCodeNotFound, ErrNotFound, "diagram %s", id)
}

// =============================================================================
// Retry
// =============================================================================

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return stderrors.As(err, &re)
}

// retryDelay is the first backoff delay; it doubles on every attempt.
var retryDelay = 100 * time.Millisecond

// RetryWithBackoff calls fn up to 3 times. Only errors wrapped with
// Retryable trigger another attempt.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
