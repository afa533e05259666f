// Package memory is an in-process Store used for development and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"budget/internal/core"
	"budget/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu      sync.Mutex
	seq     int64
	txs     map[string]entry[core.Transaction]
	budgets map[string]core.Budget
	goals   map[string]core.Goal
}

// entry keeps insertion order so same-day transactions list newest first.
type entry[T any] struct {
	seq int64
	val T
}

func New() *Store {
	return &Store{
		txs:     map[string]entry[core.Transaction]{},
		budgets: map[string]core.Budget{},
		goals:   map[string]core.Goal{},
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) ListTransactions(_ context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]entry[core.Transaction], 0, len(s.txs))
	for _, e := range s.txs {
		if f.Matches(e.val) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b entry[core.Transaction]) int {
		if c := b.val.Date.Compare(a.val.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}
	out := make([]core.Transaction, len(entries))
	for i, e := range entries {
		out[i] = e.val
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, store.Wrap("get", "transaction", store.ErrNotFound)
	}
	return e.val, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.seq++
	s.txs[t.ID] = entry[core.Transaction]{seq: s.seq, val: t}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txs[t.ID]
	if !ok {
		return core.Transaction{}, store.Wrap("update", "transaction", store.ErrNotFound)
	}
	e.val = t
	s.txs[t.ID] = e
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return store.Wrap("delete", "transaction", store.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, month core.Date) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		if month.IsZero() || b.Month.Equal(month) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b core.Budget) int {
		if c := b.Month.Compare(a.Month.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, store.Wrap("get", "budget", store.ErrNotFound)
	}
	return b, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.Category == b.Category && existing.Month.Equal(b.Month) {
			return core.Budget{}, store.Wrap("create", "budget",
				fmt.Errorf("%w: budget for %s in %s already exists", core.ErrConflict, b.Category, b.Month.MonthKey()))
		}
	}
	b.ID = uuid.NewString()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudgetLimit(_ context.Context, id string, limit decimal.Decimal) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, store.Wrap("update", "budget", store.ErrNotFound)
	}
	b.MonthlyLimit = limit
	s.budgets[id] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return store.Wrap("delete", "budget", store.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b core.Goal) int {
		if c := b.TargetDate.Compare(a.TargetDate.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return core.Goal{}, store.Wrap("get", "goal", store.ErrNotFound)
	}
	return g, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = uuid.NewString()
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok {
		return core.Goal{}, store.Wrap("update", "goal", store.ErrNotFound)
	}
	existing.Title = g.Title
	existing.Description = g.Description
	existing.TargetAmount = g.TargetAmount
	existing.TargetDate = g.TargetDate
	s.goals[g.ID] = existing
	return existing, nil
}

func (s *Store) UpdateGoalProgress(_ context.Context, id string, expected, current decimal.Decimal, completed bool) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return core.Goal{}, store.Wrap("update progress", "goal", store.ErrNotFound)
	}
	if !g.CurrentAmount.Equal(expected) {
		return core.Goal{}, store.Wrap("update progress", "goal", store.ErrStaleProgress)
	}
	g.CurrentAmount = current
	g.IsCompleted = completed
	s.goals[id] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return store.Wrap("delete", "goal", store.ErrNotFound)
	}
	delete(s.goals, id)
	return nil
}
