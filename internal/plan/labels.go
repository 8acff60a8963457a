// Package plan stores the numbered labels the admin places on the floor
// plan and renders the annotated image served to visitors.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"parkshare/internal/domain"
)

const (
	LabelsFileName = "plan_labels.json"
	ImageFileName  = "plan-1.png"
)

type Store struct {
	path string
}

func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, LabelsFileName)}
}

func (s *Store) Load() ([]domain.PlanLabel, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []domain.PlanLabel{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("plan: read labels: %w", err)
	}
	var labels []domain.PlanLabel
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("plan: labels file corrupt: %w", err)
	}
	return labels, nil
}

func (s *Store) save(labels []domain.PlanLabel) error {
	b, err := json.MarshalIndent(labels, "", "  ")
	if err != nil {
		return fmt.Errorf("plan: encode labels: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("plan: create data dir: %w", err)
	}
	if err := os.WriteFile(s.path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("plan: write labels: %w", err)
	}
	return nil
}

// Add appends a label at (x, y) numbered after the current last label and
// returns the updated list.
func (s *Store) Add(x, y int) ([]domain.PlanLabel, error) {
	labels, err := s.Load()
	if err != nil {
		return nil, err
	}
	labels = append(labels, domain.PlanLabel{N: len(labels) + 1, X: x, Y: y})
	if err := s.save(labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// Undo removes the last label, if any.
func (s *Store) Undo() ([]domain.PlanLabel, error) {
	labels, err := s.Load()
	if err != nil {
		return nil, err
	}
	if len(labels) > 0 {
		labels = labels[:len(labels)-1]
		if err := s.save(labels); err != nil {
			return nil, err
		}
	}
	return labels, nil
}

// Reset drops all labels.
func (s *Store) Reset() ([]domain.PlanLabel, error) {
	labels := []domain.PlanLabel{}
	if err := s.save(labels); err != nil {
		return nil, err
	}
	return labels, nil
}
