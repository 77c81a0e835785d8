// Package extractor turns crawled pages into a ranked, deduplicated list of
// named entities matching a caller-specified or auto-inferred intent.
package extractor

import (
	"strings"
	"unicode/utf8"
)

// Candidate is an unconfirmed extraction hit: one matched span on one page.
// Candidates sharing a dedup key are merged keep-max-by-score downstream.
type Candidate struct {
	Name       string
	Title      string
	Org        string
	Type       string
	ContextURL string
	Snippet    string
	Score      float64
	Features   map[string]float64
}

// RoleOnly reports whether the candidate carries a title but no plausible
// person name. Such rows stay intermediate unless explicitly opted in.
func (c Candidate) RoleOnly() bool {
	return strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Title) != ""
}

// Entity is the finalized, externally visible form of a candidate. Nil
// pointers serialize to JSON null per the entities.json contract.
type Entity struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	URL         *string `json:"url"`
	Snippet     *string `json:"snippet"`
	Score       float64 `json:"score"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	PassingYear *string `json:"passing_year"`
}

// Result is returned by an extraction run.
type Result struct {
	Domain        string   `json:"domain"`
	PagesScanned  int      `json:"pages_scanned"`
	Entities      []Entity `json:"entities"`
	EntitiesCount int      `json:"entities_count"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// truncateRunes caps s at n bytes without splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[:runeFloor(s, n)]
}

// runeFloor moves i back to the nearest rune boundary at or before it.
func runeFloor(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
