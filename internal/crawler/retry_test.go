package crawler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	policy := NewExponentialRetryPolicy(2, 10*time.Millisecond, 100*time.Millisecond)

	cases := []struct {
		name    string
		status  int
		err     error
		attempt int
		want    bool
	}{
		{name: "429 retried", status: http.StatusTooManyRequests, want: true},
		{name: "500 retried", status: http.StatusInternalServerError, want: true},
		{name: "502 retried", status: http.StatusBadGateway, want: true},
		{name: "503 retried", status: http.StatusServiceUnavailable, want: true},
		{name: "504 retried", status: http.StatusGatewayTimeout, want: true},
		{name: "404 not retried", status: http.StatusNotFound, want: false},
		{name: "200 not retried", status: http.StatusOK, want: false},
		{name: "network timeout retried", err: timeoutError{}, want: true},
		{name: "context canceled not retried", err: context.Canceled, want: false},
		{name: "deadline exceeded not retried", err: context.DeadlineExceeded, want: false},
		{name: "budget exhausted", status: http.StatusServiceUnavailable, attempt: 2, want: false},
		{name: "generic error retried", err: errors.New("connection reset"), want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, policy.ShouldRetry(tc.status, tc.err, tc.attempt))
		})
	}
}

func TestBackoffBounds(t *testing.T) {
	base := 100 * time.Millisecond
	ceiling := 400 * time.Millisecond
	policy := NewExponentialRetryPolicy(5, base, ceiling)

	for attempt := 0; attempt < 8; attempt++ {
		d := policy.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, ceiling, "attempt %d exceeded ceiling", attempt)
	}
}

func TestBackoffGrows(t *testing.T) {
	policy := NewExponentialRetryPolicy(5, 100*time.Millisecond, time.Minute)

	// The jittered delay lives in [delay/2, delay), so attempt 3 always
	// exceeds attempt 0's maximum.
	require.Greater(t, policy.Backoff(3), policy.Backoff(0))
}

func TestRetryPolicyDefaults(t *testing.T) {
	policy := NewExponentialRetryPolicy(0, 0, 0)
	require.True(t, policy.ShouldRetry(http.StatusServiceUnavailable, nil, 1))
	require.False(t, policy.ShouldRetry(http.StatusServiceUnavailable, nil, 2))
}
