package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("transient failures are retried until success", func(t *testing.T) {
		exec := New(3, time.Millisecond)

		attempts := 0
		err := exec.Run(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return &pgconn.PgError{Code: "40001"}
			}
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 3, attempts)
	})

	t.Run("deterministic failure is returned without retrying", func(t *testing.T) {
		exec := New(3, time.Millisecond)
		fatal := errors.New("constraint violated")

		attempts := 0
		err := exec.Run(context.Background(), func(ctx context.Context) error {
			attempts++
			return fatal
		})

		require.ErrorIs(t, err, fatal)
		require.Equal(t, 1, attempts)
	})

	t.Run("attempts are capped at maxAttempts", func(t *testing.T) {
		exec := New(3, time.Millisecond)
		transient := &pgconn.PgError{Code: "40P01"}

		attempts := 0
		err := exec.Run(context.Background(), func(ctx context.Context) error {
			attempts++
			return transient
		})

		require.ErrorIs(t, err, transient)
		require.Equal(t, 3, attempts)
	})

	t.Run("cancellation stops the backoff wait", func(t *testing.T) {
		exec := New(3, 500*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())

		attempts := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := exec.Run(ctx, func(ctx context.Context) error {
			attempts++
			return syscall.ECONNREFUSED
		})

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1, attempts)
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"network timeout", net.Error(timeoutErr{}), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.transient, IsTransient(tc.err))
		})
	}
}
