package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubSimilarity returns a fixed semantic score for every doc.
type stubSimilarity struct {
	score float64
}

func (s stubSimilarity) Similarity(_ context.Context, _ string, docs []string) []float64 {
	out := make([]float64, len(docs))
	for i := range out {
		out[i] = s.score
	}
	return out
}

func TestScoreWithKeywords(t *testing.T) {
	scorer := NewScorer(stubSimilarity{score: 0.8}, 0)
	c := Candidate{
		Name:       "Jane Smith",
		Title:      "Minister",
		ContextURL: "https://gov.test/news",
		Snippet:    "Jane Smith, Minister of Health, announced the new policy today.",
	}

	ok := scorer.Score(context.Background(), &c, []string{"minister"})
	require.True(t, ok)

	richness := float64(len(c.Snippet)) / 450.0
	want := 0.60*0.8 + 0.20*1 + 0.10*0 + 0.10*richness
	require.InDelta(t, want, c.Score, 1e-9)
	require.GreaterOrEqual(t, c.Score, 0.5)
	require.Equal(t, 0.8, c.Features["semantic"])
	require.Equal(t, 1.0, c.Features["has_title"])
}

func TestScoreWithoutKeywords(t *testing.T) {
	scorer := NewScorer(stubSimilarity{score: 0.9}, 0)
	c := Candidate{
		Name:       "Jane Smith",
		Title:      "Minister",
		Org:        "Ministry of Health",
		ContextURL: "https://gov.test/news",
		Snippet:    strings.Repeat("x", 450),
	}

	ok := scorer.Score(context.Background(), &c, nil)
	require.True(t, ok)
	// 0.45*hasTitle + 0.20*hasOrg + 0.35*(richness+boost)
	require.InDelta(t, 0.45+0.20+0.35*1.0, c.Score, 1e-9)
	require.NotContains(t, c.Features, "semantic")
}

func TestScoreURLSectionBoost(t *testing.T) {
	scorer := NewScorer(stubSimilarity{}, 0)

	plain := Candidate{Snippet: "short", ContextURL: "https://x.test/news/article"}
	boosted := Candidate{Snippet: "short", ContextURL: "https://x.test/team/jane"}

	require.True(t, scorer.Score(context.Background(), &plain, nil))
	require.True(t, scorer.Score(context.Background(), &boosted, nil))
	require.Greater(t, boosted.Score, plain.Score)
	require.Equal(t, 0.15, boosted.Features["url_boost"])
	require.Equal(t, 0.0, plain.Features["url_boost"])
}

func TestScoreSemanticFloor(t *testing.T) {
	scorer := NewScorer(stubSimilarity{score: 0.1}, 0.3)

	c := Candidate{Title: "Minister", Snippet: "some text"}
	require.False(t, scorer.Score(context.Background(), &c, []string{"minister"}),
		"below-floor candidates must be discarded when keywords are present")

	// Without keywords the floor does not apply.
	c2 := Candidate{Title: "Minister", Snippet: "some text"}
	require.True(t, scorer.Score(context.Background(), &c2, nil))
}

func TestScoreStaysInRange(t *testing.T) {
	scorer := NewScorer(stubSimilarity{score: 1.0}, 0)
	c := Candidate{
		Title:      "Minister",
		Org:        "Ministry",
		ContextURL: "https://x.test/leadership/",
		Snippet:    strings.Repeat("y", 2000),
	}
	require.True(t, scorer.Score(context.Background(), &c, []string{"a", "b"}))
	require.GreaterOrEqual(t, c.Score, 0.0)
	require.LessOrEqual(t, c.Score, 1.0)
}
