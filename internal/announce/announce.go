// Package announce persists the advisory banner shown on the home page.
// The banner is best effort: a missing, disabled or unreadable record just
// means "no banner".
package announce

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"parkshare/internal/domain"
)

const FileName = "announcement.json"

type Store struct {
	path string
}

func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, FileName)}
}

// Load returns the current announcement, or nil when none should be shown.
func (s *Store) Load() *domain.Announcement {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var a domain.Announcement
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}
	if !a.Enabled {
		return nil
	}
	return &a
}

// Save writes the record, normalising level and trimming text fields.
func (s *Store) Save(title, body, level string, enabled bool) error {
	switch level {
	case "info", "warn", "danger":
	default:
		level = "info"
	}
	a := domain.Announcement{
		Enabled:   enabled,
		Level:     level,
		Title:     strings.TrimSpace(title),
		Body:      strings.TrimSpace(body),
		UpdatedAt: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("announce: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("announce: create data dir: %w", err)
	}
	if err := os.WriteFile(s.path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("announce: write: %w", err)
	}
	return nil
}
