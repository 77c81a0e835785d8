package extractor

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/ai"
	"github.com/thecodingpenguins/extractify/internal/crawler"
)

// CanonLabels is the zero-shot taxonomy for inferred entity types.
var CanonLabels = []string{
	// public sector / justice
	"Minister", "Prime Minister", "Cabinet Minister", "Minister of State",
	"Judge", "Justice", "Chief Justice", "Magistrate",
	"Attorney General", "Public Prosecutor",
	"Secretary", "Cabinet Secretary",
	"Commissioner", "Registrar", "Chancellor", "Vice-Chancellor",
	// academia / research / orgs
	"Director", "Dean", "Professor", "Scientist", "Researcher",
	"Organization", "Department", "Agency",
	// generic fallbacks
	"Person", "Leader", "Executive", "Manager", "Engineer",
}

const (
	maxSentences       = 80
	maxSnippetLen      = 400
	clusterThreshold   = 0.30
	minClusterCohort   = 3
	similarityWeight   = 0.7
	keywordBonusCap    = 0.3
	keywordBonusPerHit = 0.1
)

// Enhancer is the optional semantic pass: snippet selection, zero-shot type
// labeling, embedding re-ranking, and name-similarity deduplication. Every
// sub-step has a deterministic fallback so the pass never fails outright.
type Enhancer struct {
	client *ai.Client
	caps   ai.Capabilities
	sim    Similarity
	logger *zap.Logger
}

// NewEnhancer wires the pass from the probed capabilities.
func NewEnhancer(client *ai.Client, caps ai.Capabilities, sim Similarity, logger *zap.Logger) *Enhancer {
	return &Enhancer{
		client: client,
		caps:   caps,
		sim:    sim,
		logger: logger,
	}
}

// Enhance runs the semantic pass over scored candidates and returns the
// surviving set: per-cluster best members with refreshed snippets, inferred
// types, and blended scores.
func (e *Enhancer) Enhance(ctx context.Context, pages []crawler.PageRecord, cands []Candidate, keywords []string) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	textByURL := make(map[string]string, len(pages))
	for _, p := range pages {
		textByURL[p.URL] = p.Text
	}

	enriched := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		fullText := textByURL[c.ContextURL]
		if fullText == "" {
			fullText = c.Snippet
		}
		c.Snippet = BestSentence(fullText, c.Name, keywords)
		c.Type = e.inferLabel(ctx, c.Name, c.Snippet)

		sim := 0.0
		if c.Snippet != "" {
			sim = e.sim.Similarity(ctx, c.Name, []string{c.Snippet})[0]
		}
		bonus := keywordBonus(c.Snippet, keywords)
		if blended := similarityWeight*sim + bonus; blended > c.Score {
			c.Score = clamp01(blended)
		}
		enriched = append(enriched, c)
	}

	return dedupeClusters(enriched)
}

func (e *Enhancer) inferLabel(ctx context.Context, name, snippet string) string {
	text := strings.TrimSpace(name)
	if snippet != "" {
		text = strings.TrimSpace(name + ". " + snippet)
	}
	if e.client != nil && e.caps.ZeroShot {
		label, err := e.client.Classify(ctx, text, CanonLabels)
		if err == nil {
			return label
		}
		e.logger.Warn("zero-shot call failed, degrading to keyword label", zap.Error(err))
	}
	return keywordLabel(text)
}

// keywordLabel is the deterministic trigger-table fallback for type
// inference.
func keywordLabel(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "minister"):
		return "Minister"
	case strings.Contains(t, "secretary"):
		return "Secretary"
	case strings.Contains(t, "chief justice"), strings.Contains(t, "justice"), strings.Contains(t, "judge"):
		return "Judge"
	case strings.Contains(t, "professor"), strings.Contains(t, "research"), strings.Contains(t, "faculty"):
		return "Professor"
	default:
		return "Person"
	}
}

// BestSentence picks the single page sentence that best represents the
// candidate, scored by name presence, keyword hits, and fuzzy token overlap
// against "name + keywords".
func BestSentence(fullText, name string, keywords []string) string {
	sents := splitSentences(fullText)
	if len(sents) > maxSentences {
		sents = sents[:maxSentences]
	}
	if len(sents) == 0 {
		return truncateRunes(strings.Join(strings.Fields(fullText), " "), maxSnippetLen)
	}

	query := strings.TrimSpace(name + " " + strings.Join(keywords, " "))
	best := sents[0]
	bestScore := -1.0
	for _, s := range sents {
		score := sentenceScore(s, name, keywords, query)
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return truncateRunes(best, maxSnippetLen)
}

func sentenceScore(s, name string, keywords []string, query string) float64 {
	score := 0.0
	low := strings.ToLower(s)
	if name != "" && strings.Contains(low, strings.ToLower(name)) {
		score += 0.6
	}
	score += keywordBonus(s, keywords)
	score += 0.1 * NameSimilarity(s, query)
	return score
}

func keywordBonus(s string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	low := strings.ToLower(s)
	hits := 0
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(low, k) {
			hits++
		}
	}
	bonus := keywordBonusPerHit * float64(hits)
	if bonus > keywordBonusCap {
		bonus = keywordBonusCap
	}
	return bonus
}

// splitSentences is a lightweight sentence splitter: break after .?! followed
// by whitespace, drop fragments of ten characters or fewer.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sents []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '?' && runes[i] != '!' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' && runes[i+1] != '\t' {
			continue
		}
		if s := normalizeSentence(string(runes[start : i+1])); s != "" {
			sents = append(sents, s)
		}
		start = i + 1
	}
	if s := normalizeSentence(string(runes[start:])); s != "" {
		sents = append(sents, s)
	}
	return sents
}

func normalizeSentence(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= 10 {
		return ""
	}
	return s
}

// dedupeClusters groups candidates by name similarity with average-linkage
// agglomerative clustering and keeps the highest-scoring member per cluster,
// then enforces (name, url) uniqueness. Tiny cohorts skip clustering.
func dedupeClusters(cands []Candidate) []Candidate {
	groups := clusterByName(cands)

	selected := make([]Candidate, 0, len(groups))
	for _, group := range groups {
		best := group[0]
		for _, idx := range group[1:] {
			if preferCandidate(cands[idx], cands[best]) {
				best = idx
			}
		}
		selected = append(selected, cands[best])
	}

	seen := make(map[[2]string]struct{}, len(selected))
	out := make([]Candidate, 0, len(selected))
	for _, c := range selected {
		key := [2]string{strings.ToLower(strings.TrimSpace(c.Name)), strings.ToLower(strings.TrimSpace(c.ContextURL))}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// clusterByName returns index groups via average-linkage clustering on name
// distance (1 - token-sort similarity). Below minClusterCohort every item is
// its own singleton.
func clusterByName(cands []Candidate) [][]int {
	n := len(cands)
	if n == 0 {
		return nil
	}
	if n < minClusterCohort {
		groups := make([][]int, n)
		for i := range groups {
			groups[i] = []int{i}
		}
		return groups
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := 1 - NameSimilarity(cands[i].Name, cands[j].Name)
			dist[i][j], dist[j][i] = d, d
		}
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > 1 {
		bestI, bestJ, bestD := -1, -1, clusterThreshold
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if d := averageLinkage(dist, clusters[i], clusters[j]); d <= bestD {
					bestI, bestJ, bestD = i, j, d
				}
			}
		}
		if bestI < 0 {
			break
		}
		clusters[bestI] = append(clusters[bestI], clusters[bestJ]...)
		clusters = append(clusters[:bestJ], clusters[bestJ+1:]...)
	}
	return clusters
}

func averageLinkage(dist [][]float64, a, b []int) float64 {
	total := 0.0
	for _, i := range a {
		for _, j := range b {
			total += dist[i][j]
		}
	}
	return total / float64(len(a)*len(b))
}

// preferCandidate orders candidates for keep-best selection; the comparison
// is total so the winner does not depend on input order.
func preferCandidate(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if len(a.Snippet) != len(b.Snippet) {
		return len(a.Snippet) > len(b.Snippet)
	}
	return a.Name < b.Name
}
