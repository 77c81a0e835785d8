package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// TitleLexicon lists the role phrases the rule pass anchors on. Multi-word
// phrases come first so the alternation prefers the longest match.
var TitleLexicon = []string{
	// Government
	"Union Minister", "Cabinet Minister", "Minister of State",
	"Chief Minister", "Deputy Chief Minister",
	"Home Minister", "Finance Minister", "Law Minister", "Education Minister",
	"Prime Minister", "Minister",

	// Civil service / administration
	"Chief Secretary", "Joint Secretary", "Additional Secretary", "Under Secretary",
	"Secretary", "Commissioner", "Deputy Director", "Director",

	// Judiciary
	"Chief Justice", "Additional Judge", "Justice", "Judge",
	"Attorney General", "Solicitor General",

	// Academia / administration
	"Vice Chancellor", "Pro Vice Chancellor", "Chancellor",
	"Professor", "Registrar", "Dean",
}

const (
	// ruleWindow is the character radius searched for a name near a role hit.
	ruleWindow = 120
	// maxNameTokens bounds a plausible personal-name span.
	maxNameTokens = 4
)

var (
	titleRE = buildTitleRegexp(TitleLexicon)
	nameRE  = regexp.MustCompile(`\b[A-Z][a-z'’-]+(?:\s+(?:[A-Z]\.\s*)?[A-Z][a-z'’-]+){0,3}\b`)
)

func buildTitleRegexp(lexicon []string) *regexp.Regexp {
	escaped := make([]string, 0, len(lexicon))
	for _, phrase := range lexicon {
		escaped = append(escaped, regexp.QuoteMeta(phrase))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// FindTitle returns the first role phrase in text in canonical lexicon case,
// or "".
func FindTitle(text string) string {
	m := titleRE.FindString(text)
	return canonicalTitle(m)
}

func canonicalTitle(match string) string {
	if match == "" {
		return ""
	}
	for _, phrase := range TitleLexicon {
		if strings.EqualFold(phrase, match) {
			return phrase
		}
	}
	words := strings.Fields(strings.ToLower(match))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Personish reports whether a span plausibly names a person: one to four
// Title-Case tokens that are not themselves role words.
func Personish(span string) bool {
	span = strings.TrimSpace(span)
	if span == "" {
		return false
	}
	tokens := strings.Fields(span)
	if len(tokens) == 0 || len(tokens) > maxNameTokens {
		return false
	}
	if titleRE.MatchString(span) {
		return false
	}
	for _, tok := range tokens {
		r := []rune(tok)
		if r[0] < 'A' || r[0] > 'Z' {
			return false
		}
		if strings.ToUpper(tok) == tok && len(r) > 2 {
			return false
		}
	}
	return true
}

// RulePass scans page text for role phrases and pairs each with the nearest
// plausible name span inside a fixed window. A role with no nearby name is
// recorded as a role-only candidate for later triage.
func RulePass(url, text string) []Candidate {
	var out []Candidate
	for _, loc := range titleRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		winStart := start - ruleWindow
		if winStart < 0 {
			winStart = 0
		}
		winStart = runeFloor(text, winStart)
		winEnd := end + ruleWindow
		if winEnd > len(text) {
			winEnd = len(text)
		} else {
			winEnd = runeFloor(text, winEnd)
		}
		window := text[winStart:winEnd]
		title := canonicalTitle(text[start:end])

		name := nearestName(window, start-winStart)
		out = append(out, Candidate{
			Name:       name,
			Title:      title,
			ContextURL: url,
			Snippet:    strings.TrimSpace(window),
		})
	}
	return out
}

// maskRoles blanks out role phrases so the name matcher cannot swallow a
// name into a "Justice Anil Verma" style span. Offsets are preserved.
func maskRoles(window string) string {
	masked := []byte(window)
	for _, loc := range titleRE.FindAllStringIndex(window, -1) {
		for i := loc[0]; i < loc[1]; i++ {
			masked[i] = ' '
		}
	}
	return string(masked)
}

// nearestName picks the plausible name span closest to the role position
// within the window, or "" when none qualifies.
func nearestName(window string, rolePos int) string {
	type span struct {
		text string
		dist int
	}
	masked := maskRoles(window)
	var spans []span
	for _, loc := range nameRE.FindAllStringIndex(masked, -1) {
		candidate := masked[loc[0]:loc[1]]
		if !Personish(candidate) {
			continue
		}
		dist := loc[0] - rolePos
		if dist < 0 {
			dist = -dist
		}
		spans = append(spans, span{text: candidate, dist: dist})
	}
	if len(spans) == 0 {
		return ""
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].dist < spans[j].dist })
	return spans[0].text
}
