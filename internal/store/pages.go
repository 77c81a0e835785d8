// Package store implements the on-disk data contract: the line-delimited
// pages file, the entities JSON file, the cancel marker, and the optional
// SQLite mirror.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/crawler"
)

// PageStore persists crawled pages as line-delimited JSON, one object per
// page. The file is rewritten wholesale at the start of each crawl.
type PageStore struct {
	path   string
	logger *zap.Logger
}

// NewPageStore returns a store rooted at path.
func NewPageStore(path string, logger *zap.Logger) *PageStore {
	return &PageStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *PageStore) Path() string { return s.path }

// Rewrite truncates the file and writes every page as one JSON line.
func (s *PageStore) Rewrite(pages []crawler.PageRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create pages dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create pages file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("close pages file", zap.Error(cerr))
		}
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, page := range pages {
		if err := enc.Encode(page); err != nil {
			return fmt.Errorf("encode page %s: %w", page.URL, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush pages file: %w", err)
	}
	return nil
}

// ReadAll loads every parseable page line. A missing file yields an empty
// list and corrupt lines are skipped, both without error.
func (s *PageStore) ReadAll() ([]crawler.PageRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open pages file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("close pages file", zap.Error(cerr))
		}
	}()

	var pages []crawler.PageRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var page crawler.PageRecord
		if err := json.Unmarshal(line, &page); err != nil {
			s.logger.Debug("skipping corrupt page line", zap.Error(err))
			continue
		}
		pages = append(pages, page)
	}
	if err := scanner.Err(); err != nil {
		return pages, fmt.Errorf("scan pages file: %w", err)
	}
	return pages, nil
}
