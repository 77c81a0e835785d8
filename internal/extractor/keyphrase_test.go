package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopKeyphrases(t *testing.T) {
	texts := []string{
		strings.Repeat("faculty research ", 5) + "machine learning lab",
		strings.Repeat("faculty research ", 3) + "machine learning seminar",
	}

	phrases := TopKeyphrases(texts, 4)
	require.NotEmpty(t, phrases)
	require.Contains(t, phrases, "faculty research")
	require.LessOrEqual(t, len(phrases), 4)
}

func TestTopKeyphrasesDeterministic(t *testing.T) {
	texts := []string{"alpha beta gamma alpha beta gamma alpha beta"}
	first := TopKeyphrases(texts, 5)
	second := TopKeyphrases(texts, 5)
	require.Equal(t, first, second)
}

func TestTopKeyphrasesSkipsStopwordsAndRareTerms(t *testing.T) {
	texts := []string{"the the the and and singular content content content"}
	phrases := TopKeyphrases(texts, 10)
	for _, p := range phrases {
		require.NotContains(t, []string{"the", "and"}, p)
		require.NotEqual(t, "singular", p, "terms seen once are not keyphrases")
	}
	require.Contains(t, phrases, "content")
}

func TestTopKeyphrasesEmptyInput(t *testing.T) {
	require.Empty(t, TopKeyphrases(nil, 5))
	require.Empty(t, TopKeyphrases([]string{"text"}, 0))
}
