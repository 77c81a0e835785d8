package extractor

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/crawler"
)

// Config tunes one extraction run.
type Config struct {
	IncludeRoleOnly bool
	SemanticFloor   float64
	MaxTextChars    int
	Enhance         bool
}

// EntitySink receives the current materialized entity list. The streaming
// runner calls it after every page so a polling reader sees monotonically
// improving results.
type EntitySink interface {
	WriteEntities(entities []Entity) error
}

// CancelChecker is polled between pages for cooperative cancellation.
type CancelChecker interface {
	Canceled() bool
}

// Pipeline is the multi-pass candidate extraction and scoring pipeline.
type Pipeline struct {
	cfg      Config
	tagger   Tagger
	scorer   *Scorer
	enhancer *Enhancer
	logger   *zap.Logger
}

// New wires a Pipeline. enhancer may be nil when the semantic pass is
// disabled.
func New(cfg Config, tagger Tagger, scorer *Scorer, enhancer *Enhancer, logger *zap.Logger) *Pipeline {
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = 300000
	}
	return &Pipeline{
		cfg:      cfg,
		tagger:   tagger,
		scorer:   scorer,
		enhancer: enhancer,
		logger:   logger,
	}
}

// Run extracts entities from pages in one shot.
func (p *Pipeline) Run(ctx context.Context, pages []crawler.PageRecord, keywords []string, target string) (Result, error) {
	return p.run(ctx, pages, keywords, target, nil, nil)
}

// RunStreaming extracts entities, persisting the current entity set through
// sink after each page and honoring the cancel checker between pages.
// Entities collected before a cancellation are preserved.
func (p *Pipeline) RunStreaming(ctx context.Context, pages []crawler.PageRecord, keywords []string, target string, sink EntitySink, cancel CancelChecker) (Result, error) {
	return p.run(ctx, pages, keywords, target, sink, cancel)
}

func (p *Pipeline) run(ctx context.Context, pages []crawler.PageRecord, keywords []string, target string, sink EntitySink, cancel CancelChecker) (Result, error) {
	keywords = cleanKeywords(keywords)
	if len(keywords) == 0 && isAuto(target) {
		texts := make([]string, 0, len(pages))
		for _, page := range pages {
			texts = append(texts, page.Text)
		}
		keywords = TopKeyphrases(texts, 8)
		if len(keywords) > 0 {
			p.logger.Info("no keywords supplied, widened from page keyphrases", zap.Strings("keywords", keywords))
		}
	}
	targetTypes := ResolveTarget(target, keywords)

	agg := NewAggregator()
	scanned := 0
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			break
		}
		if cancel != nil && cancel.Canceled() {
			p.logger.Info("cancel marker found, stopping extraction early", zap.Int("pages_done", scanned))
			break
		}
		scanned++
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		p.processPage(ctx, page, keywords, agg)
		if sink != nil {
			if err := sink.WriteEntities(p.materialize(ctx, pages[:scanned], agg, keywords, targetTypes)); err != nil {
				p.logger.Warn("streaming entity write failed", zap.Error(err))
			}
		}
	}

	entities := p.materialize(ctx, pages, agg, keywords, targetTypes)
	if sink != nil {
		if err := sink.WriteEntities(entities); err != nil {
			p.logger.Warn("final entity write failed", zap.Error(err))
		}
	}

	return Result{
		Domain:        domainOf(pages),
		PagesScanned:  len(pages),
		Entities:      entities,
		EntitiesCount: len(entities),
	}, nil
}

func (p *Pipeline) processPage(ctx context.Context, page crawler.PageRecord, keywords []string, agg *Aggregator) {
	candidates := RulePass(page.URL, page.Text)

	nerCands, err := NERPass(p.tagger, page.URL, page.Text, p.cfg.MaxTextChars)
	if err != nil {
		p.logger.Warn("ner pass failed, keeping rule candidates", zap.String("url", page.URL), zap.Error(err))
	} else {
		candidates = append(candidates, nerCands...)
	}

	for _, c := range candidates {
		if !p.scorer.Score(ctx, &c, keywords) {
			continue
		}
		agg.Add(c)
	}
}

// materialize produces the externally visible entity list from the current
// aggregate: optional semantic pass, type filtering, role-only policy, and
// deterministic ordering.
func (p *Pipeline) materialize(ctx context.Context, pages []crawler.PageRecord, agg *Aggregator, keywords, targetTypes []string) []Entity {
	cands := agg.List()
	if p.cfg.Enhance && p.enhancer != nil {
		cands = p.enhancer.Enhance(ctx, pages, cands, keywords)
	}

	filtered := cands[:0:0]
	for _, c := range cands {
		if AllowAny(c, targetTypes) {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		if filtered[i].Name != filtered[j].Name {
			return filtered[i].Name < filtered[j].Name
		}
		return filtered[i].ContextURL < filtered[j].ContextURL
	})

	return Entities(filtered, p.cfg.IncludeRoleOnly)
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{})
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func isAuto(target string) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	return t == "" || t == "auto"
}

func domainOf(pages []crawler.PageRecord) string {
	if len(pages) == 0 {
		return ""
	}
	u, err := url.Parse(pages[0].URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
