package store

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/rajasatyajit/lifesaver/internal/errors"
	"github.com/rajasatyajit/lifesaver/internal/models"
)

// InMemoryStore implements Store using in-memory storage
type InMemoryStore struct {
	mu      sync.RWMutex
	reports []models.Report
	index   map[string]int
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		index: make(map[string]int),
	}
}

// ListReports returns copies of all reports in insertion order
func (s *InMemoryStore) ListReports(ctx context.Context) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Report, len(s.reports))
	for i, r := range s.reports {
		result[i] = r.Clone()
	}
	return result, nil
}

// GetReport retrieves a single report by ID
func (s *InMemoryStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	r := s.reports[i].Clone()
	return &r, nil
}

// InsertReport appends a report
func (s *InMemoryStore) InsertReport(ctx context.Context, r models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[r.ID]; exists {
		return fmt.Errorf("insert report %s: %w", r.ID, apperrors.ErrConflict)
	}
	s.index[r.ID] = len(s.reports)
	s.reports = append(s.reports, r.Clone())
	return nil
}

// UpdateReport applies upd to the stored report and returns the result
func (s *InMemoryStore) UpdateReport(ctx context.Context, id string, upd models.ReportUpdate) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	upd.Apply(&s.reports[i])
	r := s.reports[i].Clone()
	return &r, nil
}

// Health always returns nil for in-memory store
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}
