package crawler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thecodingpenguins/extractify/internal/metrics"
)

// EngineConfig bounds one crawl run.
type EngineConfig struct {
	MaxPages      int
	MaxDepth      int
	Keywords      []string
	KeywordGate   bool
	RunawayFactor int
	Delay         time.Duration
}

// Engine runs a single-threaded breadth-first crawl over one host. The
// frontier, visited set, and page list are owned exclusively by Run, so no
// locking is needed.
type Engine struct {
	cfg     EngineConfig
	fetcher Fetcher
	robots  RobotsPolicy
	logger  *zap.Logger
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(cfg EngineConfig, fetcher Fetcher, robots RobotsPolicy, logger *zap.Logger) *Engine {
	if cfg.RunawayFactor <= 1 {
		cfg.RunawayFactor = 8
	}
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		robots:  robots,
		logger:  logger,
	}
}

// Run crawls breadth-first from domain, bounded by max pages, max depth, and
// the runaway circuit breaker. A failed page is skipped, never fatal; the
// only returned errors are an invalid seed and context cancellation, and in
// the latter case the pages collected so far are still returned.
func (e *Engine) Run(ctx context.Context, domain string) ([]PageRecord, CrawlSummary, error) {
	start := time.Now()

	root, err := NormalizeURL(domain, "")
	if err != nil {
		return nil, CrawlSummary{}, fmt.Errorf("normalize seed %q: %w", domain, err)
	}

	var limiter *rate.Limiter
	if e.cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(e.cfg.Delay), 1)
	}

	visited := make(map[string]struct{})
	queue := []task{{url: root, depth: 0}}
	var pages []PageRecord

	for len(queue) > 0 && len(pages) < e.cfg.MaxPages {
		t := queue[0]
		queue = queue[1:]

		if _, seen := visited[t.url]; seen {
			continue
		}
		visited[t.url] = struct{}{}

		if len(visited) > e.cfg.RunawayFactor*e.cfg.MaxPages {
			e.logger.Warn("runaway frontier, stopping crawl early",
				zap.Int("visited", len(visited)),
				zap.Int("pages", len(pages)),
			)
			break
		}

		if t.depth > e.cfg.MaxDepth || !SameHost(t.url, root) {
			continue
		}
		if !e.robots.Allowed(ctx, t.url) {
			e.logger.Debug("robots disallowed", zap.String("url", t.url))
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return pages, e.summary(root, pages, start), err
			}
		}

		resp, err := e.fetcher.Fetch(ctx, t.url)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return pages, e.summary(root, pages, start), cerr
			}
			metrics.RecordPage("skipped")
			e.logger.Debug("fetch skipped", zap.String("url", t.url), zap.Error(err))
			continue
		}

		doc, err := ParseDocument(resp.Body, t.url)
		if err != nil {
			e.logger.Debug("parse failed", zap.String("url", t.url), zap.Error(err))
			continue
		}

		storeURL := t.url
		if doc.Canonical != "" && doc.Canonical != t.url && SameHost(doc.Canonical, root) {
			if _, seen := visited[doc.Canonical]; seen {
				continue
			}
			visited[doc.Canonical] = struct{}{}
			storeURL = doc.Canonical
		}

		pages = append(pages, PageRecord{URL: storeURL, Title: doc.Title, Text: doc.Text})
		metrics.RecordPage("ok")
		e.logger.Info("crawled page",
			zap.String("url", storeURL),
			zap.Int("depth", t.depth),
			zap.Int("pages", len(pages)),
		)

		if t.depth >= e.cfg.MaxDepth {
			continue
		}
		if e.gated(doc) {
			e.logger.Debug("keyword gate closed, not expanding links", zap.String("url", storeURL))
			continue
		}
		for _, link := range doc.Links {
			if !SameHost(link, root) {
				continue
			}
			if _, seen := visited[link]; seen {
				continue
			}
			queue = append(queue, task{url: link, depth: t.depth + 1})
		}
	}

	return pages, e.summary(root, pages, start), nil
}

// gated reports whether the keyword gate suppresses link expansion for doc.
// The gate trades recall for speed and is off by default.
func (e *Engine) gated(doc Document) bool {
	if !e.cfg.KeywordGate || len(e.cfg.Keywords) == 0 {
		return false
	}
	haystack := strings.ToLower(doc.Title + " " + doc.Text)
	for _, kw := range e.cfg.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return false
		}
	}
	return true
}

func (e *Engine) summary(root string, pages []PageRecord, start time.Time) CrawlSummary {
	samples := make([]string, 0, 5)
	for _, p := range pages {
		if len(samples) == 5 {
			break
		}
		samples = append(samples, p.URL)
	}
	return CrawlSummary{
		Domain:         root,
		PagesScanned:   len(pages),
		SampleURLs:     samples,
		ElapsedSeconds: math.Round(time.Since(start).Seconds()*100) / 100,
	}
}
