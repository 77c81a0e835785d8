// Package crawler implements the bounded, polite, same-host BFS crawler.
package crawler

import "net/http"

// PageRecord is the unit of persistence for one successfully fetched page.
type PageRecord struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// FetchResponse carries the raw HTTP outcome of a single fetch.
type FetchResponse struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// CrawlSummary is returned to callers after a crawl finishes.
type CrawlSummary struct {
	Domain         string   `json:"domain"`
	PagesScanned   int      `json:"pages_scanned"`
	SampleURLs     []string `json:"sample_urls"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
}

// task is one frontier entry: a normalized URL and the depth it was found at.
type task struct {
	url   string
	depth int
}
