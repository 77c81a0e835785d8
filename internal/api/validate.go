package api

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	maxKeywords   = 50
	maxKeywordLen = 100
	maxPagesLimit = 1000
	maxDepthLimit = 10
)

// suspiciousRE rejects keywords carrying injection-style punctuation.
var suspiciousRE = regexp.MustCompile(`[<>{}()\[\]'"\\;]`)

// ValidationError marks a request rejected before any work started. The
// server maps it to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ValidateURL normalizes a user-supplied domain or URL. Bare hosts get an
// https scheme prefixed.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", validationErrorf("url must be a non-empty string")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", validationErrorf("invalid url: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", validationErrorf("only http/https urls are supported: %s", raw)
	}
	if parsed.Host == "" {
		return "", validationErrorf("invalid url format: %s", raw)
	}
	return raw, nil
}

// SanitizeKeywords drops empty, oversized, and suspicious keywords and
// collapses internal whitespace. Exceeding the count cap is an error; a bad
// individual keyword is silently dropped.
func SanitizeKeywords(keywords []string) ([]string, error) {
	if len(keywords) > maxKeywords {
		return nil, validationErrorf("too many keywords, maximum allowed: %d", maxKeywords)
	}
	sanitized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.Join(strings.Fields(kw), " ")
		if kw == "" || len(kw) > maxKeywordLen {
			continue
		}
		if suspiciousRE.MatchString(kw) {
			continue
		}
		sanitized = append(sanitized, kw)
	}
	return sanitized, nil
}

// ValidateMaxPages enforces 1..1000. Zero means "use the configured default".
func ValidateMaxPages(maxPages, def int) (int, error) {
	if maxPages == 0 {
		maxPages = def
	}
	if maxPages < 1 {
		return 0, validationErrorf("max_pages must be at least 1")
	}
	if maxPages > maxPagesLimit {
		return 0, validationErrorf("max_pages cannot exceed %d", maxPagesLimit)
	}
	return maxPages, nil
}

// ValidateMaxDepth enforces 0..10. A nil pointer means "use the configured
// default"; an explicit 0 is a valid seed-only crawl.
func ValidateMaxDepth(maxDepth *int, def int) (int, error) {
	if maxDepth == nil {
		return def, nil
	}
	d := *maxDepth
	if d < 0 {
		return 0, validationErrorf("max_depth must be at least 0")
	}
	if d > maxDepthLimit {
		return 0, validationErrorf("max_depth cannot exceed %d", maxDepthLimit)
	}
	return d, nil
}

// ValidateMinScore enforces 0..1.
func ValidateMinScore(minScore float64) (float64, error) {
	if minScore < 0 {
		return 0, validationErrorf("min_score must be at least 0")
	}
	if minScore > 1 {
		return 0, validationErrorf("min_score cannot exceed 1")
	}
	return minScore, nil
}
