// Package memory is an in-memory row source, used for local development
// and as a test double for the tabular pipeline.
package memory

import (
	"context"
	"sync"
)

type Store struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

// New creates a store serving the given rows, header row first.
func New(rows [][]string) *Store {
	return &Store{rows: rows}
}

// ReadRows returns a copy of the stored rows.
func (s *Store) ReadRows(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// SetRows replaces the stored rows.
func (s *Store) SetRows(rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
}

// FailWith makes subsequent reads return err. Pass nil to clear.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
