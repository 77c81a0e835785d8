// Package main hosts the extractify entrypoint.
//
// Architecture overview:
//   - CLI: cobra subcommands (crawl, extract, cancel, serve, version) share one
//     application bundle built in a persistent pre-run hook; viper populates
//     config from a file and EXTRACTIFY_* env vars.
//   - Crawl pipeline: a single-threaded BFS engine walks a FIFO frontier of
//     same-host URLs within page and depth bounds, behind a robots.txt gate, a
//     rate-limited courtesy delay, and a Colly-based fetcher with retry/backoff.
//     Visible text and links come out of a goquery extractor that strips
//     boilerplate. Pages land in a JSONL store, optionally mirrored to SQLite.
//   - Extraction pipeline: a rule pass (role lexicon near Title-Case names) and
//     a statistical NER pass generate candidates, a weighted scorer ranks them,
//     an optional enhancer refreshes snippets and labels via embedding and
//     zero-shot backends (probed once at startup, degrading to deterministic
//     fallbacks), and a keep-max aggregator dedupes by (name, title, url).
//     Partial results stream to entities.json after every page; a sentinel file
//     cancels an in-flight run at the next page boundary.
//   - HTTP API: internal/api.Server exposes the same operations over chi with
//     request-ID, logging, and recovery middleware, plus /healthz and /metrics.
package main
