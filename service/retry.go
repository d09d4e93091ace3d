package service

import (
	"context"
	"errors"
	"time"

	"driverbook/pkg/logger"
	"driverbook/storage"
)

type retrier struct {
	attempts int
	backoff  time.Duration
	log      logger.ILogger
}

// do runs fn until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. Backoff grows quadratically.
func do[T any](ctx context.Context, r retrier, op string, fn func() (T, error)) (T, error) {
	var attempt int
	for {
		attempt++
		v, err := fn()
		if err == nil || !errors.Is(err, storage.ErrUnavailable) {
			return v, err
		}
		r.log.Warning("storage unavailable", logger.String("op", op), logger.Int("attempt", attempt), logger.Error(err))
		if attempt >= r.attempts {
			return v, err
		}
		storeRetries.WithLabelValues(op).Inc()

		select {
		case <-time.After(time.Duration(attempt*attempt) * r.backoff):
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}
