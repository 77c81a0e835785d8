package crawler

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelector covers markup that never carries entity-bearing prose.
const boilerplateSelector = "script, style, noscript, header, footer, nav, aside"

// adTokens are common id/class names for ad and consent containers.
var adTokens = []string{"advertisement", "ads", "ad", "promo", "cookie"}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Document is the parsed form of one fetched HTML page.
type Document struct {
	Title     string
	Text      string
	Canonical string
	Links     []string
}

// ParseDocument extracts the title, visible text, canonical link, and
// normalized outbound links from an HTML body. Links are resolved against
// baseURL; unparsable or non-http(s) hrefs are dropped silently.
func ParseDocument(body []byte, baseURL string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	out := Document{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if canonical, err := NormalizeURL(href, baseURL); err == nil {
			out.Canonical = canonical
		}
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		link, err := NormalizeURL(href, baseURL)
		if err != nil {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out.Links = append(out.Links, link)
	})

	doc.Find(boilerplateSelector).Remove()
	for _, token := range adTokens {
		doc.Find(fmt.Sprintf("#%s, .%s", token, token)).Remove()
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	out.Text = strings.TrimSpace(whitespaceRE.ReplaceAllString(root.Text(), " "))

	return out, nil
}
