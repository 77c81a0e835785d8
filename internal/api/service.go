package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/ai"
	"github.com/thecodingpenguins/extractify/internal/config"
	"github.com/thecodingpenguins/extractify/internal/crawler"
	"github.com/thecodingpenguins/extractify/internal/extractor"
	"github.com/thecodingpenguins/extractify/internal/metrics"
	"github.com/thecodingpenguins/extractify/internal/store"
)

// ErrNoPages means /extract was called before any crawl produced pages.
var ErrNoPages = errors.New("no pages found, run a crawl first")

// CrawlParams is a validated crawl request.
type CrawlParams struct {
	URL      string
	Keywords []string
	MaxPages int
	MaxDepth int
}

// ExtractParams is a validated extract request.
type ExtractParams struct {
	Keywords []string
	Target   string
	MinScore float64
}

// Service owns the long-lived pipeline pieces and runs crawl and extraction
// jobs against the on-disk stores. Jobs run synchronously on the caller's
// goroutine; the stores serialize the data contract.
type Service struct {
	cfg      config.Config
	logger   *zap.Logger
	caps     ai.Capabilities
	pipeline *extractor.Pipeline
	pages    *store.PageStore
	entities *store.EntityStore
	cancel   *store.CancelMarker
	db       *store.CrawlDB
}

// NewService builds the pipeline from configuration. The AI backends are
// probed once here; availability does not change for the process lifetime.
func NewService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Service, error) {
	client := ai.NewClient(ai.Config{
		EmbeddingURL: cfg.AI.EmbeddingURL,
		ZeroShotURL:  cfg.AI.ZeroShotURL,
		Token:        cfg.AI.Token,
		Timeout:      time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}, logger)
	caps := client.Probe(ctx)

	sim := extractor.NewSimilarity(client, caps, logger)
	scorer := extractor.NewScorer(sim, cfg.Extractor.SemanticFloor)
	var enhancer *extractor.Enhancer
	if cfg.Extractor.Enhance {
		enhancer = extractor.NewEnhancer(client, caps, sim, logger)
	}
	pipeline := extractor.New(extractor.Config{
		IncludeRoleOnly: cfg.Extractor.IncludeRoleOnly,
		SemanticFloor:   cfg.Extractor.SemanticFloor,
		MaxTextChars:    cfg.Extractor.MaxTextChars,
		Enhance:         cfg.Extractor.Enhance,
	}, extractor.NewProseTagger(), scorer, enhancer, logger)

	dataDir := cfg.Storage.DataDir
	svc := &Service{
		cfg:      cfg,
		logger:   logger,
		caps:     caps,
		pipeline: pipeline,
		pages:    store.NewPageStore(filepath.Join(dataDir, cfg.Storage.PagesFile), logger),
		entities: store.NewEntityStore(filepath.Join(dataDir, cfg.Storage.EntitiesFile), logger),
		cancel:   store.NewCancelMarker(filepath.Join(dataDir, cfg.Storage.CancelFile)),
	}

	if cfg.Storage.DBPath != "" {
		db, err := store.OpenCrawlDB(filepath.Join(dataDir, cfg.Storage.DBPath))
		if err != nil {
			return nil, fmt.Errorf("open crawl db: %w", err)
		}
		svc.db = db
	}

	return svc, nil
}

// Close releases the optional database handle.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SemanticAvailable reports whether any AI backend answered the probe.
func (s *Service) SemanticAvailable() bool {
	return s.caps.Embeddings || s.caps.ZeroShot
}

// RespectRobots reports the configured robots posture for /healthz.
func (s *Service) RespectRobots() bool {
	return s.cfg.Crawler.RespectRobots
}

// Crawl runs a bounded same-host crawl and rewrites the pages store.
func (s *Service) Crawl(ctx context.Context, params CrawlParams) (crawler.CrawlSummary, error) {
	start := time.Now()

	cc := s.cfg.Crawler
	retry := crawler.NewExponentialRetryPolicy(cc.MaxRetries, cc.BackoffInitial(), cc.BackoffMax())
	fetcher := crawler.NewCollyFetcher(cc.UserAgent, cc.RequestTimeout(), retry, s.logger)
	robots := crawler.NewRobotsPolicy(cc.RespectRobots, cc.UserAgent, s.logger)
	engine := crawler.NewEngine(crawler.EngineConfig{
		MaxPages:      params.MaxPages,
		MaxDepth:      params.MaxDepth,
		Keywords:      params.Keywords,
		KeywordGate:   cc.KeywordGate,
		RunawayFactor: cc.RunawayFactor,
		Delay:         cc.Delay(),
	}, fetcher, robots, s.logger)

	pages, summary, err := engine.Run(ctx, params.URL)
	if err != nil && len(pages) == 0 {
		metrics.RecordCrawl("error", time.Since(start).Seconds())
		return crawler.CrawlSummary{}, fmt.Errorf("crawl %s: %w", params.URL, err)
	}

	// A canceled crawl still persists whatever it collected.
	if werr := s.pages.Rewrite(pages); werr != nil {
		metrics.RecordCrawl("error", time.Since(start).Seconds())
		return crawler.CrawlSummary{}, fmt.Errorf("persist pages: %w", werr)
	}
	if s.db != nil {
		if derr := s.db.SavePages(ctx, pages); derr != nil {
			s.logger.Warn("sqlite page mirror failed", zap.Error(derr))
		}
	}

	status := "ok"
	if err != nil {
		status = "canceled"
	}
	metrics.RecordCrawl(status, time.Since(start).Seconds())
	s.logger.Info("crawl finished",
		zap.String("domain", summary.Domain),
		zap.Int("pages", summary.PagesScanned),
		zap.String("status", status),
	)
	return summary, err
}

// Extract runs the extraction pipeline over the stored pages, streaming
// partial entities to disk as each page completes. MinScore filters the
// returned list only; the entities file keeps every scored entity.
func (s *Service) Extract(ctx context.Context, params ExtractParams) (extractor.Result, error) {
	start := time.Now()

	pages, err := s.pages.ReadAll()
	if err != nil {
		return extractor.Result{}, fmt.Errorf("read pages: %w", err)
	}
	if len(pages) == 0 {
		return extractor.Result{}, ErrNoPages
	}

	// A stale marker from a prior run must not cancel this one.
	if err := s.cancel.Clear(); err != nil {
		s.logger.Warn("clear cancel marker failed", zap.Error(err))
	}

	result, err := s.pipeline.RunStreaming(ctx, pages, params.Keywords, params.Target, s.entities, s.cancel)
	if err != nil {
		return extractor.Result{}, fmt.Errorf("extract entities: %w", err)
	}

	if s.db != nil {
		if derr := s.db.ReplaceEntities(ctx, result.Domain, result.Entities); derr != nil {
			s.logger.Warn("sqlite entity mirror failed", zap.Error(derr))
		}
	}

	metrics.RecordExtraction(result.EntitiesCount, time.Since(start).Seconds())
	s.logger.Info("extraction finished",
		zap.String("domain", result.Domain),
		zap.Int("pages", result.PagesScanned),
		zap.Int("entities", result.EntitiesCount),
	)

	if params.MinScore > 0 {
		filtered := result.Entities[:0:0]
		for _, e := range result.Entities {
			if e.Score >= params.MinScore {
				filtered = append(filtered, e)
			}
		}
		result.Entities = filtered
		result.EntitiesCount = len(filtered)
	}
	return result, nil
}

// CancelExtraction drops the sentinel file that stops an in-flight run at
// its next page boundary.
func (s *Service) CancelExtraction() error {
	return s.cancel.Set()
}

// Results returns the last saved entities. It never fails; missing or
// corrupt files read as empty.
func (s *Service) Results() []extractor.Entity {
	entities, err := s.entities.Read()
	if err != nil {
		s.logger.Warn("read entities failed", zap.Error(err))
		return []extractor.Entity{}
	}
	if entities == nil {
		return []extractor.Entity{}
	}
	return entities
}
