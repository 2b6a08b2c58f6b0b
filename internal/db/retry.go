package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is one attempt of a database call.
type Operation func(ctx context.Context) error

// Retryable reports whether a failed attempt may be repeated.
type Retryable func(err error) bool

const (
	DefaultMaxRetries = 3
	retryBackoff      = 50 * time.Millisecond
)

// Try runs op, repeating it after transient network or timeout failures.
func Try(ctx context.Context, op Operation) error {
	return WithRetries(ctx, op, DefaultMaxRetries, IsTransient)
}

// WithRetries runs op up to maxRetries+1 times while retryable accepts the
// error. The wait between attempts grows linearly and is cut short by ctx.
func WithRetries(ctx context.Context, op Operation, maxRetries int, retryable Retryable) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil || attempt == maxRetries || !retryable(err) {
			return err
		}

		timer := time.NewTimer(time.Duration(attempt+1) * retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last attempt: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
}

// IsTransient matches errors where the server may not have seen the request.
// Duplicate keys and validation failures are never transient.
func IsTransient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
