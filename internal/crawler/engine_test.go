package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher serves canned HTML keyed by normalized URL.
type fakeFetcher struct {
	pages   map[string]string
	fetched []string
	cancel  context.CancelFunc
	after   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (FetchResponse, error) {
	if err := ctx.Err(); err != nil {
		return FetchResponse{}, err
	}
	f.fetched = append(f.fetched, rawURL)
	if f.cancel != nil && len(f.fetched) >= f.after {
		f.cancel()
	}
	body, ok := f.pages[rawURL]
	if !ok {
		return FetchResponse{}, fmt.Errorf("%w: 404 for %s", ErrBadStatus, rawURL)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "text/html")
	return FetchResponse{
		URL:        rawURL,
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       []byte(body),
	}, nil
}

func page(title, text string, links ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><p>%s</p>", title, text)
	for _, l := range links {
		fmt.Fprintf(&b, `<a href=%q>link</a>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newTestEngine(cfg EngineConfig, fetcher Fetcher) *Engine {
	robots := NewRobotsPolicy(false, "extractify-test", zap.NewNop())
	return NewEngine(cfg, fetcher, robots, zap.NewNop())
}

func TestEngineBreadthFirstSameHost(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test":   page("Home", "welcome", "/a", "/b", "https://other.test/x"),
		"https://site.test/a": page("A", "alpha", "/c"),
		"https://site.test/b": page("B", "beta"),
		"https://site.test/c": page("C", "gamma"),
	}}

	pages, summary, err := newTestEngine(EngineConfig{MaxPages: 10, MaxDepth: 2}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)

	var urls []string
	for _, p := range pages {
		urls = append(urls, p.URL)
		require.True(t, SameHost(p.URL, "https://site.test"))
	}
	// Breadth-first: both depth-1 pages before the depth-2 page.
	require.Equal(t, []string{
		"https://site.test",
		"https://site.test/a",
		"https://site.test/b",
		"https://site.test/c",
	}, urls)

	require.Equal(t, "https://site.test", summary.Domain)
	require.Equal(t, 4, summary.PagesScanned)
	require.Len(t, summary.SampleURLs, 4)
}

func TestEngineRespectsMaxPages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test":   page("Home", "welcome", "/a", "/b", "/c"),
		"https://site.test/a": page("A", "alpha"),
		"https://site.test/b": page("B", "beta"),
		"https://site.test/c": page("C", "gamma"),
	}}

	pages, summary, err := newTestEngine(EngineConfig{MaxPages: 2, MaxDepth: 3}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, 2, summary.PagesScanned)
}

func TestEngineRespectsMaxDepth(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test":   page("Home", "welcome", "/a"),
		"https://site.test/a": page("A", "alpha", "/b"),
		"https://site.test/b": page("B", "beta"),
	}}

	pages, _, err := newTestEngine(EngineConfig{MaxPages: 10, MaxDepth: 1}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "https://site.test/a", pages[1].URL)
}

func TestEngineSinglePageNoLinks(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test": page("Only", "just this page"),
	}}

	pages, _, err := newTestEngine(EngineConfig{MaxPages: 30, MaxDepth: 2}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

func TestEngineVisitedDedup(t *testing.T) {
	// Both children link back to the root and to each other; every page is
	// still fetched exactly once.
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test":   page("Home", "welcome", "/a", "/b"),
		"https://site.test/a": page("A", "alpha", "/", "/b"),
		"https://site.test/b": page("B", "beta", "/", "/a"),
	}}

	pages, _, err := newTestEngine(EngineConfig{MaxPages: 10, MaxDepth: 5}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.Len(t, fetcher.fetched, 3)
}

func TestEngineSkipsFailedPages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test":   page("Home", "welcome", "/missing", "/b"),
		"https://site.test/b": page("B", "beta"),
	}}

	pages, _, err := newTestEngine(EngineConfig{MaxPages: 10, MaxDepth: 2}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, pages, 2)
}

func TestEngineCanonicalDedup(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://site.test": page("Home", "welcome", "/a", "/dup"),
		"https://site.test/a": page("A", "alpha") +
			`<link rel="canonical" href="https://site.test/a">`,
		"https://site.test/dup": `<html><head><title>Dup</title>` +
			`<link rel="canonical" href="/a"></head><body><p>copy of a</p></body></html>`,
	}}

	pages, _, err := newTestEngine(EngineConfig{MaxPages: 10, MaxDepth: 2}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)

	var urls []string
	for _, p := range pages {
		urls = append(urls, p.URL)
	}
	require.Equal(t, []string{"https://site.test", "https://site.test/a"}, urls)
}

func TestEngineRunawayCircuitBreaker(t *testing.T) {
	links := make([]string, 20)
	pages := map[string]string{}
	for i := range links {
		links[i] = fmt.Sprintf("/dead-%d", i)
	}
	pages["https://site.test"] = page("Home", "welcome", links...)

	fetcher := &fakeFetcher{pages: pages}
	got, _, err := newTestEngine(EngineConfig{MaxPages: 2, MaxDepth: 2, RunawayFactor: 2}, fetcher).
		Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, got, 1)
	// The breaker trips once the visited set exceeds factor*maxPages, well
	// before the 20-link frontier drains.
	require.Less(t, len(fetcher.fetched), 7)
}

func TestEngineKeywordGate(t *testing.T) {
	pages := map[string]string{
		"https://site.test":   page("Home", "nothing relevant here", "/a"),
		"https://site.test/a": page("A", "alpha"),
	}

	gatedFetcher := &fakeFetcher{pages: pages}
	got, _, err := newTestEngine(EngineConfig{
		MaxPages:    10,
		MaxDepth:    2,
		Keywords:    []string{"penguin"},
		KeywordGate: true,
	}, gatedFetcher).Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, got, 1, "gate should suppress link expansion without the keyword")

	pages["https://site.test"] = page("Home", "the penguin colony", "/a")
	openFetcher := &fakeFetcher{pages: pages}
	got, _, err = newTestEngine(EngineConfig{
		MaxPages:    10,
		MaxDepth:    2,
		Keywords:    []string{"penguin"},
		KeywordGate: true,
	}, openFetcher).Run(context.Background(), "https://site.test")
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestEngineCancellationKeepsPartialPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://site.test":   page("Home", "welcome", "/a", "/b"),
			"https://site.test/a": page("A", "alpha"),
			"https://site.test/b": page("B", "beta"),
		},
		cancel: cancel,
		after:  2,
	}

	pages, _, err := newTestEngine(EngineConfig{
		MaxPages: 10,
		MaxDepth: 2,
		Delay:    time.Millisecond,
	}, fetcher).Run(ctx, "https://site.test")
	require.ErrorIs(t, err, context.Canceled)
	require.NotEmpty(t, pages)
	require.Less(t, len(pages), 3)
}

func TestEngineRejectsBadSeed(t *testing.T) {
	_, _, err := newTestEngine(EngineConfig{MaxPages: 5, MaxDepth: 1}, &fakeFetcher{}).
		Run(context.Background(), "mailto:nobody@example.com")
	require.Error(t, err)
}
