package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
}

func New(maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return &Executor{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// Run invokes op up to maxAttempts times with doubling backoff between
// attempts. Only failures classified as transient are retried; a
// deterministic failure (constraint violation, validation error) is returned
// immediately so it cannot produce duplicate side effects.
func (e *Executor) Run(ctx context.Context, op func(ctx context.Context) error) error {
	delay := e.baseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == e.maxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return isTransientPgError(err) || isTransientNetworkError(err) || isTransientSystemError(err)
}

func isTransientPgError(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01": // serialization failure, deadlock detected
		return true
	}
	// class 08: connection exceptions
	return strings.HasPrefix(pgErr.Code, "08")
}

func isTransientNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTransientSystemError(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
