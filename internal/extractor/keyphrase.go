package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// Keyphrase suggestion: a deterministic frequency-scored replacement for a
// statistical keyword extractor, used to widen empty keyword sets before
// intent inference.

const (
	keyphraseSampleDocs  = 6
	keyphraseSampleChars = 200000
)

var keyphraseStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {}, "with": {},
	"that": {}, "this": {}, "from": {}, "have": {}, "has": {}, "had": {}, "not": {},
	"all": {}, "its": {}, "our": {}, "your": {}, "their": {}, "about": {}, "more": {},
	"will": {}, "can": {}, "also": {}, "been": {}, "into": {}, "other": {}, "which": {},
	"who": {}, "when": {}, "where": {}, "how": {}, "than": {}, "then": {}, "them": {},
	"they": {}, "his": {}, "her": {}, "she": {}, "him": {}, "you": {}, "but": {},
	"any": {}, "may": {}, "new": {}, "one": {}, "two": {}, "per": {}, "via": {},
	"home": {}, "page": {}, "site": {}, "menu": {}, "search": {}, "contact": {},
	"copyright": {}, "reserved": {}, "rights": {}, "privacy": {}, "policy": {},
}

var keyphraseTokenRE = regexp.MustCompile(`[a-z][a-z'-]{2,}`)

// TopKeyphrases returns up to k frequent unigrams and bigrams from the first
// few texts. Output order is deterministic: score descending, then term.
func TopKeyphrases(texts []string, k int) []string {
	if len(texts) == 0 || k <= 0 {
		return nil
	}
	if len(texts) > keyphraseSampleDocs {
		texts = texts[:keyphraseSampleDocs]
	}
	sample := strings.ToLower(strings.Join(texts, "\n"))
	if len(sample) > keyphraseSampleChars {
		sample = sample[:keyphraseSampleChars]
	}

	tokens := keyphraseTokenRE.FindAllString(sample, -1)
	counts := make(map[string]int)
	for i, tok := range tokens {
		if _, stop := keyphraseStopwords[tok]; stop {
			continue
		}
		counts[tok]++
		if i+1 < len(tokens) {
			next := tokens[i+1]
			if _, stop := keyphraseStopwords[next]; !stop {
				// bigrams weighted up so multi-word phrases win ties
				counts[tok+" "+next] += 2
			}
		}
	}

	type scored struct {
		term  string
		count int
	}
	ranked := make([]scored, 0, len(counts))
	for term, count := range counts {
		if count < 2 {
			continue
		}
		ranked = append(ranked, scored{term: term, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].term < ranked[j].term
	})

	out := make([]string, 0, k)
	seen := make(map[string]struct{})
	for _, s := range ranked {
		if len(out) == k {
			break
		}
		if _, dup := seen[s.term]; dup {
			continue
		}
		seen[s.term] = struct{}{}
		out = append(out, s.term)
	}
	return out
}
