// Package draft persists an editing session's element layout so a signing
// job can be resumed after a restart. Drafts are keyed to a document
// fingerprint; restoring against a different document is refused.
package draft

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quillsign/esign/internal/editor"
)

// FileVersion guards against loading drafts written by an incompatible
// layout.
const FileVersion = 1

// Draft is the serialized layout of one session.
type Draft struct {
	Version      int              `json:"version"`
	DocumentName string           `json:"document_name"`
	PageCount    int              `json:"page_count"`
	CurrentPage  int              `json:"current_page"`
	Zoom         float64          `json:"zoom"`
	Elements     []editor.Element `json:"elements"`
	SavedAt      time.Time        `json:"saved_at"`
}

// Store reads and writes drafts at a fixed path.
type Store struct {
	filePath string
	mu       sync.RWMutex
}

// NewStore creates a draft store backed by the given file.
func NewStore(filePath string) *Store {
	return &Store{filePath: filePath}
}

// Save writes the draft atomically: a temp file is written next to the
// target and renamed over it.
func (s *Store) Save(d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.Version = FileVersion
	d.SavedAt = time.Now()

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create draft directory: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp draft file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp draft file: %w", err)
	}
	return nil
}

// Load reads the draft file. A missing file returns (nil, nil) so callers
// can treat "no draft" as a normal start.
func (s *Store) Load() (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse draft file: %w", err)
	}
	if d.Version != FileVersion {
		return nil, fmt.Errorf("unsupported draft file version %d (expected %d)", d.Version, FileVersion)
	}
	return &d, nil
}

// Discard removes the draft file if present.
func (s *Store) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove draft file: %w", err)
	}
	return nil
}
