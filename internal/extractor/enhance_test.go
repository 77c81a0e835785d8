package extractor

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/ai"
	"github.com/thecodingpenguins/extractify/internal/crawler"
)

func TestSplitSentences(t *testing.T) {
	text := "Jane Smith is the Minister of Health. She announced a policy today! Was it expected? Yes."
	sents := splitSentences(text)
	require.Equal(t, []string{
		"Jane Smith is the Minister of Health.",
		"She announced a policy today!",
		"Was it expected?",
	}, sents, "fragments of ten characters or fewer are dropped")
}

func TestSplitSentencesIgnoresAbbreviationDots(t *testing.T) {
	// A period not followed by whitespace does not end a sentence.
	sents := splitSentences("Visit example.com for details about the program.")
	require.Len(t, sents, 1)
}

func TestBestSentence(t *testing.T) {
	text := "The weather was pleasant. Jane Smith, Minister of Health, announced the policy. Traffic was heavy."
	best := BestSentence(text, "Jane Smith", []string{"minister"})
	require.Contains(t, best, "Jane Smith")
	require.Contains(t, best, "Minister")
}

func TestBestSentenceFallsBackToCompactText(t *testing.T) {
	best := BestSentence("short", "Nobody", nil)
	require.Equal(t, "short", best)
}

func TestBestSentenceTruncatesAtRuneBoundary(t *testing.T) {
	// 510 bytes of three-byte runes with no sentence break: the length cap
	// lands mid-rune and must back off to a boundary.
	text := strings.Repeat("€", 170)
	best := BestSentence(text, "Nobody", nil)
	require.True(t, utf8.ValidString(best))
	require.LessOrEqual(t, len(best), maxSnippetLen)
}

func TestKeywordLabel(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Jane Smith, Minister of Health", "Minister"},
		{"the cabinet secretary attended", "Secretary"},
		{"Justice Anil Verma presided", "Judge"},
		{"Professor Meera Nair, faculty lead", "Professor"},
		{"Ravi Menon attended the event", "Person"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, keywordLabel(tc.text), "text %q", tc.text)
	}
}

func TestDedupeClustersMergesNameVariants(t *testing.T) {
	cands := []Candidate{
		{Name: "Jane Smith", Score: 0.9, ContextURL: "https://x.test/a", Snippet: "long snippet about Jane"},
		{Name: "Smith, Jane", Score: 0.5, ContextURL: "https://x.test/b", Snippet: "short"},
		{Name: "Rahul Verma", Score: 0.7, ContextURL: "https://x.test/c", Snippet: "about Rahul"},
	}
	out := dedupeClusters(cands)
	require.Len(t, out, 2)

	names := make(map[string]float64)
	for _, c := range out {
		names[c.Name] = c.Score
	}
	require.Equal(t, 0.9, names["Jane Smith"], "highest-scoring variant survives")
	require.Equal(t, 0.7, names["Rahul Verma"])
}

func TestDedupeClustersTinyCohortSkipsClustering(t *testing.T) {
	cands := []Candidate{
		{Name: "Jane Smith", Score: 0.9, ContextURL: "https://x.test/a"},
		{Name: "Smith, Jane", Score: 0.5, ContextURL: "https://x.test/b"},
	}
	out := dedupeClusters(cands)
	require.Len(t, out, 2, "cohorts under the minimum stay unclustered")
}

func TestDedupeClustersNameURLUniqueness(t *testing.T) {
	cands := []Candidate{
		{Name: "Alpha One", Score: 0.9, ContextURL: "https://x.test/a"},
		{Name: "Beta Two", Score: 0.8, ContextURL: "https://x.test/b"},
		{Name: "Gamma Three", Score: 0.7, ContextURL: "https://x.test/c"},
		{Name: "alpha one", Score: 0.6, ContextURL: "https://x.test/a"},
	}
	out := dedupeClusters(cands)
	seen := make(map[[2]string]bool)
	for _, c := range out {
		key := [2]string{strings.ToLower(c.Name), c.ContextURL}
		require.False(t, seen[key], "duplicate (name, url) pair emitted")
		seen[key] = true
	}
}

func TestEnhanceRefreshesSnippetAndType(t *testing.T) {
	pages := []crawler.PageRecord{{
		URL:  "https://gov.test/cabinet",
		Text: "The session opened at nine. Jane Smith, Minister of Health, announced the policy. It rained later.",
	}}
	cands := []Candidate{{
		Name:       "Jane Smith",
		Title:      "Minister",
		ContextURL: "https://gov.test/cabinet",
		Snippet:    "Jane Smith, Minister",
		Score:      0.4,
	}}

	enh := NewEnhancer(nil, ai.Capabilities{}, tokenOverlapSimilarity{}, zap.NewNop())
	out := enh.Enhance(context.Background(), pages, cands, []string{"minister"})
	require.Len(t, out, 1)
	require.Contains(t, out[0].Snippet, "announced the policy")
	require.Equal(t, "Minister", out[0].Type)
	require.GreaterOrEqual(t, out[0].Score, 0.4, "blending never lowers a score")
}

func TestEnhanceEmptyInput(t *testing.T) {
	enh := NewEnhancer(nil, ai.Capabilities{}, tokenOverlapSimilarity{}, zap.NewNop())
	require.Empty(t, enh.Enhance(context.Background(), nil, nil, nil))
}

func TestPreferCandidateTotalOrder(t *testing.T) {
	a := Candidate{Name: "Alpha", Score: 0.5, Snippet: "xx"}
	b := Candidate{Name: "Beta", Score: 0.5, Snippet: "xx"}
	require.True(t, preferCandidate(a, b))
	require.False(t, preferCandidate(b, a))

	longer := Candidate{Name: "Beta", Score: 0.5, Snippet: "xxxx"}
	require.True(t, preferCandidate(longer, a))
}
