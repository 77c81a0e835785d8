package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Fetch outcome sentinels. Callers treat any error as "no page" and move on;
// the sentinels exist so tests and metrics can tell policy rejections from
// network faults.
var (
	// ErrBadStatus marks a response with a status other than 200 OK.
	ErrBadStatus = errors.New("unexpected http status")
	// ErrNotHTML marks a response outside the text/html content-type family.
	ErrNotHTML = errors.New("content type is not text/html")
)

// Fetcher retrieves one URL and returns the raw response.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResponse, error)
}

// CollyFetcher implements Fetcher on a Colly collector, cloning the base
// collector per attempt. Transient failures (429, 5xx, network timeouts) are
// retried with jittered exponential backoff.
type CollyFetcher struct {
	base   *colly.Collector
	retry  RetryPolicy
	logger *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher. Robots
// handling is deliberately left to the caller's RobotsPolicy, so the
// collector itself ignores robots.txt.
func NewCollyFetcher(userAgent string, timeout time.Duration, retry RetryPolicy, logger *zap.Logger) *CollyFetcher {
	base := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.IgnoreRobotsTxt(),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	})
	base.SetRequestTimeout(timeout)

	return &CollyFetcher{
		base:   base,
		retry:  retry,
		logger: logger,
	}
}

// Fetch retrieves a page, retrying transient failures. Only a 200 response
// in the text/html family is returned as a page; every other outcome is an
// error the crawl loop skips over.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (FetchResponse, error) {
	var (
		resp FetchResponse
		err  error
	)
	for attempt := 0; ; attempt++ {
		resp, err = f.attempt(ctx, rawURL)
		if !f.retry.ShouldRetry(resp.StatusCode, err, attempt) {
			break
		}
		delay := f.retry.Backoff(attempt)
		f.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Int("status", resp.StatusCode),
			zap.Duration("backoff", delay),
		)
		if werr := sleepCtx(ctx, delay); werr != nil {
			return FetchResponse{}, werr
		}
	}
	// Colly surfaces non-2xx responses through OnError, so check the status
	// before the raw error to keep the sentinel meaningful.
	if resp.StatusCode != 0 && resp.StatusCode != http.StatusOK {
		return FetchResponse{}, fmt.Errorf("%w: %d for %s", ErrBadStatus, resp.StatusCode, rawURL)
	}
	if err != nil {
		return FetchResponse{}, err
	}
	contentType := resp.Headers.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return FetchResponse{}, fmt.Errorf("%w: %q for %s", ErrNotHTML, contentType, rawURL)
	}
	return resp, nil
}

func (f *CollyFetcher) attempt(ctx context.Context, rawURL string) (FetchResponse, error) {
	collector := f.base.Clone()
	resultCh := make(chan attemptResult, 1)
	var once sync.Once
	send := func(res attemptResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(attemptResult{resp: responseFromColly(rawURL, r)})
	})
	collector.OnError(func(r *colly.Response, err error) {
		res := attemptResult{err: err}
		if res.err == nil {
			res.err = errors.New("unknown colly error")
		}
		if r != nil {
			res.resp = responseFromColly(rawURL, r)
		}
		send(res)
	})

	if err := collector.Visit(rawURL); err != nil {
		return FetchResponse{}, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if cerr := ctx.Err(); cerr != nil {
			return FetchResponse{}, cerr
		}
		return res.resp, res.err
	default:
		return FetchResponse{}, fmt.Errorf("fetch %s produced no result", rawURL)
	}
}

func responseFromColly(rawURL string, r *colly.Response) FetchResponse {
	headers := http.Header{}
	if r.Headers != nil {
		for k, v := range *r.Headers {
			cp := make([]string, len(v))
			copy(cp, v)
			headers[k] = cp
		}
	}
	finalURL := rawURL
	if r.Request != nil && r.Request.URL != nil {
		finalURL = r.Request.URL.String()
	}
	return FetchResponse{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: r.StatusCode,
		Headers:    headers,
		Body:       append([]byte{}, r.Body...),
	}
}

type attemptResult struct {
	resp FetchResponse
	err  error
}

// sleepCtx blocks for the delay or until the context finishes.
func sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
