package extractor

import (
	"fmt"
	"regexp"
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// Span is one tagged entity occurrence in page text.
type Span struct {
	Text  string
	Label string
}

// Tagger runs statistical named-entity recognition over text.
type Tagger interface {
	Entities(text string) ([]Span, error)
}

// ProseTagger implements Tagger on the prose statistical model.
type ProseTagger struct{}

// NewProseTagger returns the default tagger.
func NewProseTagger() *ProseTagger { return &ProseTagger{} }

// Entities tags text, returning person and place/organization spans.
func (t *ProseTagger) Entities(text string) ([]Span, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}
	var spans []Span
	for _, ent := range doc.Entities() {
		spans = append(spans, Span{Text: ent.Text, Label: ent.Label})
	}
	return spans, nil
}

const (
	// nerWindow is the character radius around a tagged span used as snippet.
	nerWindow = 240
	// maxSnippet caps the stored snippet length.
	maxSnippet = 500
)

// orgRE is the fallback organization heuristic: "at/from/with <Capitalized
// phrase>".
var orgRE = regexp.MustCompile(`\b(?:at|from|with)\s+((?:[A-Z][\w&'’-]*(?:\s+|$)){1,6})`)

// NERPass runs statistical NER over page text (capped at maxChars) and
// builds one candidate per person span, with the nearest role phrase and
// organization pulled from a window around the span.
func NERPass(tagger Tagger, url, text string, maxChars int) ([]Candidate, error) {
	if maxChars > 0 {
		text = truncateRunes(text, maxChars)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	spans, err := tagger.Entities(text)
	if err != nil {
		return nil, fmt.Errorf("ner pass: %w", err)
	}

	var orgs []string
	for _, s := range spans {
		if s.Label == "ORG" || s.Label == "GPE" {
			orgs = append(orgs, s.Text)
		}
	}

	var out []Candidate
	searchFrom := 0
	for _, s := range spans {
		if s.Label != "PERSON" || !Personish(s.Text) {
			continue
		}
		pos := strings.Index(text[searchFrom:], s.Text)
		if pos < 0 {
			pos = strings.Index(text, s.Text)
			if pos < 0 {
				continue
			}
		} else {
			pos += searchFrom
			searchFrom = pos + len(s.Text)
		}

		winStart := pos - nerWindow
		if winStart < 0 {
			winStart = 0
		}
		winStart = runeFloor(text, winStart)
		winEnd := pos + len(s.Text) + nerWindow
		if winEnd > len(text) {
			winEnd = len(text)
		} else {
			winEnd = runeFloor(text, winEnd)
		}
		window := text[winStart:winEnd]

		snippet := truncateRunes(strings.TrimSpace(window), maxSnippet)

		out = append(out, Candidate{
			Name:       s.Text,
			Title:      FindTitle(window),
			Org:        nearbyOrg(window, orgs),
			ContextURL: url,
			Snippet:    snippet,
		})
	}
	return out, nil
}

// nearbyOrg prefers a tagged organization appearing inside the window, then
// falls back to the "at/from/with" pattern.
func nearbyOrg(window string, orgs []string) string {
	for _, org := range orgs {
		if strings.Contains(window, org) {
			return org
		}
	}
	if m := orgRE.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
