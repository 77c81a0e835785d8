package extractor

import (
	"context"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/ai"
)

// Similarity scores how well each doc matches the query, in [0,1]. The
// concrete strategy is selected once at startup from the probed backend
// capabilities rather than per call.
type Similarity interface {
	Similarity(ctx context.Context, query string, docs []string) []float64
}

// NewSimilarity picks the embedding strategy when the backend answered the
// probe and the deterministic token-overlap fallback otherwise.
func NewSimilarity(client *ai.Client, caps ai.Capabilities, logger *zap.Logger) Similarity {
	if client != nil && caps.Embeddings {
		return &embeddingSimilarity{
			client:   client,
			fallback: tokenOverlapSimilarity{},
			logger:   logger,
		}
	}
	return tokenOverlapSimilarity{}
}

// embeddingSimilarity uses cosine similarity over sentence embeddings,
// rescaled from [-1,1] to [0,1]. Mid-run backend failures degrade to the
// overlap fallback for that call.
type embeddingSimilarity struct {
	client   *ai.Client
	fallback tokenOverlapSimilarity
	logger   *zap.Logger
}

func (s *embeddingSimilarity) Similarity(ctx context.Context, query string, docs []string) []float64 {
	if len(docs) == 0 {
		return nil
	}
	vectors, err := s.client.Embed(ctx, append([]string{query}, docs...))
	if err != nil {
		s.logger.Warn("embedding call failed, degrading to token overlap", zap.Error(err))
		return s.fallback.Similarity(ctx, query, docs)
	}
	qv := vectors[0]
	out := make([]float64, len(docs))
	for i := range docs {
		out[i] = clamp01((ai.Cosine(qv, vectors[i+1]) + 1) / 2)
	}
	return out
}

const (
	overlapBase   = 0.5
	overlapPerHit = 0.2
)

// tokenOverlapSimilarity is the deterministic fallback: each query token
// found in the doc adds flat weight on a 0.5 base, so a single keyword hit
// inside a long sentence still registers as a strong match. Zero hits score
// zero.
type tokenOverlapSimilarity struct{}

func (tokenOverlapSimilarity) Similarity(_ context.Context, query string, docs []string) []float64 {
	q := tokenSet(query)
	out := make([]float64, len(docs))
	for i, doc := range docs {
		d := tokenSet(doc)
		if len(q) == 0 || len(d) == 0 {
			continue
		}
		hits := 0
		for tok := range q {
			if _, ok := d[tok]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := overlapBase + overlapPerHit*float64(hits)
		if score > 1 {
			score = 1
		}
		out[i] = score
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,;:()[]\"'")
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

var nameMetric = metrics.NewLevenshtein()

// NameSimilarity is a token-sort ratio: tokens are lowercased and sorted
// before a normalized edit-distance comparison, so "Smith, Jane" and
// "Jane Smith" score near 1.
func NameSimilarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	return strutil.Similarity(sortTokens(a), sortTokens(b), nameMetric)
}

func sortTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	for i, tok := range tokens {
		tokens[i] = strings.Trim(tok, ".,;:()[]\"'")
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
