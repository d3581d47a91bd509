package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
}

func TestLake_Retry_Do_SuccessOnFirstAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestLake_Retry_Do_SuccessAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestLake_Retry_Do_ExhaustsAllAttempts(t *testing.T) {
	t.Parallel()

	original := errors.New("service unavailable")
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		return original
	})
	require.Error(t, err)
	require.ErrorIs(t, err, original)
	require.Equal(t, 3, attempts)
}

func TestLake_Retry_Do_NonRetryableError(t *testing.T) {
	t.Parallel()

	original := errors.New("access denied")
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		return original
	})
	require.Equal(t, original, err)
	require.Equal(t, 1, attempts)
}

func TestLake_Retry_Do_PermanentStopsImmediately(t *testing.T) {
	t.Parallel()

	original := errors.New("connection reset")
	attempts := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		attempts++
		return Permanent(original)
	})
	require.Equal(t, original, err)
	require.Equal(t, 1, attempts)
	require.Nil(t, Permanent(nil))
}

func TestLake_Retry_Do_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, BaseBackoff: 50 * time.Millisecond, MaxBackoff: time.Second}

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("connection reset")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, attempts)
}

type statusError struct{ code int }

func (e *statusError) Error() string       { return http.StatusText(e.code) }
func (e *statusError) HTTPStatusCode() int { return e.code }

type sdkError struct{ retryable bool }

func (e *sdkError) Error() string        { return "sdk failure" }
func (e *sdkError) RetryableError() bool { return e.retryable }

func TestLake_Retry_IsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "permanent", err: Permanent(errors.New("timeout")), want: false},
		{name: "sdk retryable", err: &sdkError{retryable: true}, want: true},
		{name: "sdk not retryable", err: &sdkError{retryable: false}, want: false},
		{name: "net timeout", err: &net.DNSError{Err: "lookup", IsTimeout: true}, want: true},
		{name: "503", err: &statusError{code: http.StatusServiceUnavailable}, want: true},
		{name: "429", err: &statusError{code: http.StatusTooManyRequests}, want: true},
		{name: "404", err: &statusError{code: http.StatusNotFound}, want: false},
		{name: "slow down", err: errors.New("SlowDown: please reduce your request rate"), want: true},
		{name: "plain", err: errors.New("invalid bucket name"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestLake_Retry_CalculateBackoff(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	max := time.Second
	for attempt := 0; attempt < 6; attempt++ {
		expected := base * time.Duration(1<<uint(attempt))
		if expected > max {
			expected = max
		}
		got := calculateBackoff(base, max, attempt)
		require.GreaterOrEqual(t, got, expected/2)
		require.LessOrEqual(t, got, expected)
	}
}
