package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// Intent hint patterns over the caller's query terms.
var (
	personHints   = regexp.MustCompile(`(?i)\b(person|people|name|member|leader|minister|secretary|judge|alumni|alumnus|alumna)\b`)
	alumniHints   = regexp.MustCompile(`(?i)\b(alumni|alumnus|alumna|graduate|class of|batch of|pass ?out|convocation)\b`)
	judgeHints    = regexp.MustCompile(`(?i)\b(judge|justice|court)\b`)
	ministerHints = regexp.MustCompile(`(?i)\b(minister|secretary|cabinet)\b`)
	techHints     = regexp.MustCompile(`(?i)\b(api|sdk|framework|library|python|java|go|docker|kubernetes|ml|nlp|transformer)\b`)
	orgHints      = regexp.MustCompile(`(?i)\b(department|ministry|company|university|institute|office|division)\b`)
	locHints      = regexp.MustCompile(`(?i)\b(state|district|city|country|region|campus)\b`)
)

// Entity-side filter patterns.
var (
	alumniEntityRE = regexp.MustCompile(`(?i)\b(alumni|alumnus|alumna|alumnae|graduate|convocation|pass\s*out|class\s*of\s*(19|20)\d{2}|batch\s*of\s*(19|20)\d{2}|alumni\s+meet|alumni\s+association|notable\s+alumni)\b`)
	degreeRE       = regexp.MustCompile(`(?i)\b(B\.?\s*Tech|M\.?\s*Tech|BSc|MSc|MBA|BBA|PhD|B\.?\s*Pharm|M\.?\s*Pharm|BCA|MCA)\b`)
	yearRE         = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	techEntityRE   = regexp.MustCompile(`(?i)\b(api|sdk|library|framework|python|java(script)?|node\.js|docker|kubernetes|ml|nlp|transformer|embedding|vector|microservice|rest|graphql|database|postgres|mysql)\b`)
)

// InferTypes maps free-form query terms to target type labels. An empty or
// unmatched query yields the generic type, which filters nothing.
func InferTypes(queryTerms []string) []string {
	q := strings.Join(queryTerms, " ")
	set := make(map[string]struct{})
	if personHints.MatchString(q) {
		set["person"] = struct{}{}
	}
	if alumniHints.MatchString(q) {
		set["alumni"] = struct{}{}
	}
	if judgeHints.MatchString(q) {
		set["judge"] = struct{}{}
	}
	if ministerHints.MatchString(q) {
		set["minister"] = struct{}{}
	}
	if techHints.MatchString(q) {
		set["tech_term"] = struct{}{}
	}
	if orgHints.MatchString(q) {
		set["org"] = struct{}{}
	}
	if locHints.MatchString(q) {
		set["location"] = struct{}{}
	}
	if len(set) == 0 {
		set["generic"] = struct{}{}
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// ResolveTarget expands the caller's type hint into concrete target types.
func ResolveTarget(target string, keywords []string) []string {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "auto":
		return InferTypes(keywords)
	case "leadership":
		return []string{"minister", "person"}
	case "legal":
		return []string{"judge"}
	default:
		return []string{strings.ToLower(strings.TrimSpace(target))}
	}
}

// AllowEntity reports whether the candidate passes the filter for
// targetType.
func AllowEntity(c Candidate, targetType string) bool {
	if targetType == "generic" {
		return true
	}

	text := c.Name + " " + c.Title + " " + c.Snippet
	tlow := strings.ToLower(text)
	urlLow := strings.ToLower(c.ContextURL)
	titleLow := strings.ToLower(c.Title)

	switch targetType {
	case "alumni":
		if strings.Contains(urlLow, "alumni") {
			return true
		}
		if alumniEntityRE.MatchString(text) {
			return true
		}
		if degreeRE.MatchString(text) && yearRE.MatchString(text) {
			return true
		}
		return strings.TrimSpace(c.Name) != ""
	case "judge":
		return strings.Contains(titleLow, "judge") || strings.Contains(titleLow, "justice")
	case "minister":
		return strings.Contains(titleLow, "minister") || strings.Contains(titleLow, "secretary")
	case "tech_term":
		return techEntityRE.MatchString(tlow)
	case "org":
		return strings.Contains(tlow, "university") || strings.Contains(tlow, "department") ||
			strings.Contains(tlow, "ministry") || strings.Contains(tlow, "company")
	case "location":
		for _, k := range []string{"campus", "city", "state", "district", "region", "country"} {
			if strings.Contains(tlow, k) {
				return true
			}
		}
		return false
	case "person":
		for _, role := range []string{"professor", "director", "dean", "registrar", "lecturer", "chancellor", "secretary", "minister", "judge"} {
			if strings.Contains(titleLow, role) {
				return true
			}
		}
		return strings.TrimSpace(c.Name) != ""
	}
	return true
}

// AllowAny reports whether any of the target types admits the candidate.
func AllowAny(c Candidate, targetTypes []string) bool {
	for _, t := range targetTypes {
		if AllowEntity(c, t) {
			return true
		}
	}
	return false
}
