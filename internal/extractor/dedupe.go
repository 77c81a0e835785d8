package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// Key is the composite dedup key for candidates. Name and title are
// lowercased so casing variants collapse.
type Key struct {
	Name  string
	Title string
	URL   string
}

// KeyOf derives the dedup key for a candidate.
func KeyOf(c Candidate) Key {
	return Key{
		Name:  strings.ToLower(strings.TrimSpace(c.Name)),
		Title: strings.ToLower(strings.TrimSpace(c.Title)),
		URL:   strings.TrimSpace(c.ContextURL),
	}
}

// Aggregator merges candidates keep-max-by-score per dedup key. The merge is
// commutative and associative (ties break on snippet length then name), so
// insertion order never affects the surviving set.
type Aggregator struct {
	byKey map[Key]Candidate
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{byKey: make(map[Key]Candidate)}
}

// Add merges one candidate.
func (a *Aggregator) Add(c Candidate) {
	key := KeyOf(c)
	existing, ok := a.byKey[key]
	if !ok || preferCandidate(c, existing) {
		a.byKey[key] = c
	}
}

// Len returns the number of surviving candidates.
func (a *Aggregator) Len() int { return len(a.byKey) }

// List returns the surviving candidates sorted by score descending with
// deterministic tie-breaks.
func (a *Aggregator) List() []Candidate {
	out := make([]Candidate, 0, len(a.byKey))
	for _, c := range a.byKey {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ContextURL < out[j].ContextURL
	})
	return out
}

// Alumni-style contact extras pulled from snippets.
var (
	phoneRE       = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	passingYearRE = regexp.MustCompile(`(?i)\b(?:batch|class)\s*of\s*((?:19|20)\d{2})\b`)
	addressRE     = regexp.MustCompile(`(?i)\b\d+[\w\s,.-]{0,40}(?:road|street|avenue|lane|nagar|block|sector|marg)\b`)
)

// ToEntity converts a surviving candidate into its external form.
func ToEntity(c Candidate) Entity {
	entityType := c.Type
	if entityType == "" {
		entityType = c.Title
	}
	return Entity{
		Name:        optional(c.Name),
		Type:        optional(entityType),
		URL:         optional(c.ContextURL),
		Snippet:     optional(c.Snippet),
		Score:       clamp01(c.Score),
		Phone:       optional(phoneRE.FindString(c.Snippet)),
		Address:     optional(addressRE.FindString(c.Snippet)),
		PassingYear: optional(passingYear(c.Snippet)),
	}
}

func passingYear(snippet string) string {
	if m := passingYearRE.FindStringSubmatch(snippet); m != nil {
		return m[1]
	}
	return ""
}

// Entities materializes the final entity list: role-only rows are dropped
// unless opted in, and every emitted entity has a name or a type.
func Entities(cands []Candidate, includeRoleOnly bool) []Entity {
	out := make([]Entity, 0, len(cands))
	for _, c := range cands {
		if c.RoleOnly() && !includeRoleOnly {
			continue
		}
		e := ToEntity(c)
		if e.Name == nil && e.Type == nil {
			continue
		}
		out = append(out, e)
	}
	return out
}
