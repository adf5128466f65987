package repository

import (
	"context"
	"errors"
	"time"

	"campus-api/internal/store"
)

// Read operations are side-effect-free, so transient store failures are
// retried a small bounded number of times. Writes never retry here: a
// blind retry after an unknown-outcome failure risks duplicate effects,
// so write failures surface immediately to the caller.
const (
	readRetries  = 2
	retryBackoff = 100 * time.Millisecond
)

func withReadRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, store.ErrUnavailable) || attempt == readRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff << attempt):
		}
	}
}
