package memory

import (
	"context"
	"fmt"
	"sync"

	"budget/internal/core"
	"budget/internal/sheets"
)

var _ sheets.TransactionExporter = (*Store)(nil)

// Store keeps exported rows in memory.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	ids  map[string]int
}

func New() *Store {
	return &Store{ids: make(map[string]int)}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, sheets.Row(t))
	s.ids[t.ID] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) HasTransaction(_ context.Context, t core.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[t.ID]
	return ok, nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}
