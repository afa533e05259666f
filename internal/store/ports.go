// Package store defines the persistence ports used by the services and the
// error type every backend reports failures with.
package store

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Ports for outbound adapters.
type (
	// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
	TransactionFilter struct {
		From     core.Date
		To       core.Date
		Category core.Category
		Limit    int
	}

	// TransactionStore persists ledger entries. Lists are newest first.
	TransactionStore interface {
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	// BudgetStore persists monthly budgets. A zero month lists every budget.
	// Creating a second budget for the same (category, month) fails with
	// core.ErrConflict.
	BudgetStore interface {
		ListBudgets(ctx context.Context, month core.Date) ([]core.Budget, error)
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudgetLimit(ctx context.Context, id string, limit decimal.Decimal) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) error
	}

	// GoalStore persists savings goals. Lists are ordered by target date,
	// latest first.
	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
		GetGoal(ctx context.Context, id string) (core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		// UpdateGoal replaces title, description, target amount and target
		// date. Progress fields are left untouched.
		UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		// UpdateGoalProgress writes the current amount and completion flag
		// only if the stored current amount still equals expected. Otherwise
		// it fails with ErrStaleProgress and writes nothing.
		UpdateGoalProgress(ctx context.Context, id string, expected, current decimal.Decimal, completed bool) (core.Goal, error)
		DeleteGoal(ctx context.Context, id string) error
	}

	// Store is a complete backend.
	Store interface {
		TransactionStore
		BudgetStore
		GoalStore
		Ping(ctx context.Context) error
		Close() error
	}
)

var (
	// ErrNotFound is reported when an entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleProgress is reported when a goal's progress changed between
	// the read and the conditional write.
	ErrStaleProgress = errors.New("goal progress changed concurrently")
)

// StoreError wraps any failure coming out of a backend.
type StoreError struct {
	Op     string
	Entity string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Wrap returns err wrapped in a StoreError, or nil.
func Wrap(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Entity: entity, Err: err}
}

// Matches reports whether t passes f.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// Window restricts the filter to w.
func (f TransactionFilter) Window(w core.Window) TransactionFilter {
	f.From, f.To = w.Start, w.End
	return f
}
