package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/extractor"
)

// EntityStore persists the finalized entity list. Writes always emit a bare
// JSON array; the reader additionally accepts the legacy
// {"entities": [...]} wrapper, collapsing both wire shapes into one code
// path.
type EntityStore struct {
	path   string
	logger *zap.Logger
}

// NewEntityStore returns a store rooted at path.
func NewEntityStore(path string, logger *zap.Logger) *EntityStore {
	return &EntityStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *EntityStore) Path() string { return s.path }

// WriteEntities replaces the file with the given list atomically (write to a
// temp file, then rename) so a polling reader never observes a partial
// document. Implements extractor.EntitySink.
func (s *EntityStore) WriteEntities(entities []extractor.Entity) error {
	if entities == nil {
		entities = []extractor.Entity{}
	}
	payload, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create entities dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write entities tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace entities file: %w", err)
	}
	return nil
}

// envelope is the legacy wrapper shape some producers emit.
type envelope struct {
	Entities []extractor.Entity `json:"entities"`
}

// Read loads the persisted entity list. A missing, empty, or corrupt file
// yields an empty list rather than an error.
func (s *EntityStore) Read() ([]extractor.Entity, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []extractor.Entity{}, nil
		}
		return nil, fmt.Errorf("read entities file: %w", err)
	}
	return decodeEntities(raw, s.logger), nil
}

func decodeEntities(raw []byte, logger *zap.Logger) []extractor.Entity {
	var list []extractor.Entity
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var wrapped envelope
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Entities != nil {
		return wrapped.Entities
	}
	logger.Warn("entities file unreadable, treating as empty")
	return []extractor.Entity{}
}
