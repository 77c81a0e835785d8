package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// CancelMarker is a sentinel file polled between pages for cooperative
// cancellation. Creating the file requests a stop; the next between-pages
// check honors it without losing already-collected results.
type CancelMarker struct {
	path string
}

// NewCancelMarker returns a marker rooted at path.
func NewCancelMarker(path string) *CancelMarker {
	return &CancelMarker{path: path}
}

// Canceled implements extractor.CancelChecker.
func (m *CancelMarker) Canceled() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Set creates the marker file.
func (m *CancelMarker) Set() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o750); err != nil {
		return fmt.Errorf("create marker dir: %w", err)
	}
	if err := os.WriteFile(m.path, []byte("cancel\n"), 0o600); err != nil {
		return fmt.Errorf("write cancel marker: %w", err)
	}
	return nil
}

// Clear removes the marker file if present.
func (m *CancelMarker) Clear() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cancel marker: %w", err)
	}
	return nil
}
