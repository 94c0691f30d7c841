// Package memory keeps projection exports in process, for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finplan/internal/core"
	ports "finplan/internal/sheets"
)

// Export is one stored export.
type Export struct {
	Ref  string
	Rows [][]any
}

type Store struct {
	mu      sync.Mutex
	exports map[int64]Export
	count   int
}

var _ ports.ProjectionExporter = (*Store)(nil)

func New() *Store {
	return &Store{exports: make(map[int64]Export)}
}

// Export replaces the household's rows and returns a synthetic reference.
func (s *Store) Export(_ context.Context, householdID int64, p core.FinancialProjection) (string, error) {
	rows := ports.Rows(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	ref := fmt.Sprintf("mem:%d:%d", householdID, s.count)
	s.exports[householdID] = Export{Ref: ref, Rows: rows}
	return ref, nil
}

// Get returns the latest export of a household.
func (s *Store) Get(householdID int64) (Export, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exports[householdID]
	return e, ok
}

// Count is the number of exports performed since creation.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
