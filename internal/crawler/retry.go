package crawler

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"
)

// retryableStatuses are the HTTP codes treated as transient.
var retryableStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// RetryPolicy decides whether a failed fetch attempt should be repeated and
// how long to wait before the next attempt.
type RetryPolicy interface {
	ShouldRetry(statusCode int, err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// ExponentialRetryPolicy implements RetryPolicy with jittered backoff.
type ExponentialRetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewExponentialRetryPolicy builds a policy; zero values fall back to sane
// defaults (2 retries, 250ms base, 5s ceiling).
func NewExponentialRetryPolicy(maxRetries int, base, ceiling time.Duration) *ExponentialRetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	if ceiling <= 0 {
		ceiling = 5 * time.Second
	}
	return &ExponentialRetryPolicy{
		maxAttempts: maxRetries,
		baseDelay:   base,
		maxDelay:    ceiling,
	}
}

// ShouldRetry reports whether the attempt is worth repeating. Context
// cancellation is never retried; 429 and 5xx statuses and network timeouts
// are.
func (p *ExponentialRetryPolicy) ShouldRetry(statusCode int, err error, attempt int) bool {
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, ok := retryableStatuses[statusCode]; ok {
		return true
	}
	// A definitive HTTP response outside the retryable set is final, even
	// when the transport surfaced it as an error.
	if statusCode >= 100 {
		return false
	}
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

// Backoff returns the wait duration before the next attempt.
func (p *ExponentialRetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func (p *ExponentialRetryPolicy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
