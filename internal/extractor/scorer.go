package extractor

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// sectionRE matches URL path segments that usually list people.
var sectionRE = regexp.MustCompile(`(?i)/(team|people|staff|leadership|about|profile|profiles|faculty|alumni|members?|judges|ministry|cabinet|board)(/|$|\.)`)

const (
	richnessDivisor = 450.0
	urlSectionBoost = 0.15
)

// Scorer assigns each candidate a confidence in [0,1] from structural cues,
// keyword/semantic overlap, and page-URL hints.
type Scorer struct {
	sim   Similarity
	floor float64
}

// NewScorer builds a Scorer. floor is the semantic cutoff applied only when
// keywords are supplied; candidates under it are discarded entirely.
func NewScorer(sim Similarity, floor float64) *Scorer {
	return &Scorer{sim: sim, floor: floor}
}

// Score fills in c.Score and c.Features and reports whether the candidate
// survives the semantic floor.
func (s *Scorer) Score(ctx context.Context, c *Candidate, keywords []string) bool {
	hasTitle := 0.0
	if strings.TrimSpace(c.Title) != "" {
		hasTitle = 1
	}
	hasOrg := 0.0
	if strings.TrimSpace(c.Org) != "" {
		hasOrg = 1
	}
	richness := float64(len(c.Snippet)) / richnessDivisor
	if richness > 1 {
		richness = 1
	}
	boost := 0.0
	if urlSectionHit(c.ContextURL) {
		boost = urlSectionBoost
	}

	features := map[string]float64{
		"has_title": hasTitle,
		"has_org":   hasOrg,
		"richness":  richness,
		"url_boost": boost,
	}

	var score float64
	if len(keywords) > 0 {
		query := strings.Join(keywords, " ")
		sem := s.sim.Similarity(ctx, query, []string{c.Title + " " + c.Snippet})[0]
		features["semantic"] = sem
		if sem < s.floor {
			return false
		}
		score = 0.60*sem + 0.20*hasTitle + 0.10*hasOrg + 0.10*(richness+boost)
	} else {
		score = 0.45*hasTitle + 0.20*hasOrg + 0.35*(richness+boost)
	}

	c.Score = clamp01(score)
	c.Features = features
	return true
}

func urlSectionHit(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return sectionRE.MatchString(u.Path)
}
