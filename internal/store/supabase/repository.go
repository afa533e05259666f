// Package supabase is the Store backend for a hosted Supabase project. It
// talks to the PostgREST API with the same schema the postgres backend migrates.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"budget/internal/core"
	"budget/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supabase-community/supabase-go"
)

const (
	tableTransactions = "transactions"
	tableBudgets      = "budgets"
	tableGoals        = "goals"
)

// Repository does not honour context cancellation: the PostgREST client has no
// context-aware entry points.
type Repository struct {
	client *supabase.Client
}

var _ store.Store = (*Repository)(nil)

func NewRepository(url, key string) (*Repository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Repository{client: client}, nil
}

func (r *Repository) Close() error { return nil }

func (r *Repository) Ping(_ context.Context) error {
	_, _, err := r.client.From(tableBudgets).Select("id", "", false).Limit(1, "").Execute()
	return store.Wrap("ping", "supabase", err)
}

// decodeRows unmarshals a PostgREST array response.
func decodeRows[T any](data []byte) ([]T, error) {
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return rows, nil
}

// decodeOne returns the single row of a representation response, or ErrNotFound.
func decodeOne[T any](data []byte) (T, error) {
	var zero T
	rows, err := decodeRows[T](data)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, store.ErrNotFound
	}
	return rows[0], nil
}

func normalizeTransaction(t core.Transaction) core.Transaction {
	t.Category = core.CategoryOrOther(string(t.Category))
	return t
}

func (r *Repository) ListTransactions(_ context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	q := r.client.From(tableTransactions).Select("id,amount,category,date,description,is_recurring", "", false)
	if !f.From.IsZero() {
		q = q.Gte("date", f.From.String())
	}
	if !f.To.IsZero() {
		q = q.Lte("date", f.To.String())
	}
	if f.Category != "" {
		q = q.Eq("category", string(f.Category))
	}
	q = q.Order("date", nil).Order("seq", nil)
	if f.Limit > 0 {
		q = q.Limit(f.Limit, "")
	}
	data, _, err := q.Execute()
	if err != nil {
		return nil, store.Wrap("list", "transaction", err)
	}
	rows, err := decodeRows[core.Transaction](data)
	if err != nil {
		return nil, store.Wrap("list", "transaction", err)
	}
	for i := range rows {
		rows[i] = normalizeTransaction(rows[i])
	}
	return rows, nil
}

func (r *Repository) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	data, _, err := r.client.From(tableTransactions).
		Select("id,amount,category,date,description,is_recurring", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return core.Transaction{}, store.Wrap("get", "transaction", err)
	}
	t, err := decodeOne[core.Transaction](data)
	if err != nil {
		return core.Transaction{}, store.Wrap("get", "transaction", err)
	}
	return normalizeTransaction(t), nil
}

func (r *Repository) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	if _, _, err := r.client.From(tableTransactions).Insert(t, false, "", "minimal", "").Execute(); err != nil {
		return core.Transaction{}, store.Wrap("create", "transaction", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	data, _, err := r.client.From(tableTransactions).
		Update(map[string]any{
			"amount":       t.Amount.String(),
			"category":     string(t.Category),
			"date":         t.Date.String(),
			"description":  t.Description,
			"is_recurring": t.IsRecurring,
		}, "", "").
		Eq("id", t.ID).
		Execute()
	if err != nil {
		return core.Transaction{}, store.Wrap("update", "transaction", err)
	}
	updated, err := decodeOne[core.Transaction](data)
	if err != nil {
		return core.Transaction{}, store.Wrap("update", "transaction", err)
	}
	return normalizeTransaction(updated), nil
}

func (r *Repository) DeleteTransaction(_ context.Context, id string) error {
	data, _, err := r.client.From(tableTransactions).Delete("", "").Eq("id", id).Execute()
	if err != nil {
		return store.Wrap("delete", "transaction", err)
	}
	_, err = decodeOne[core.Transaction](data)
	return store.Wrap("delete", "transaction", err)
}

func (r *Repository) ListBudgets(_ context.Context, month core.Date) ([]core.Budget, error) {
	q := r.client.From(tableBudgets).Select("*", "", false)
	if !month.IsZero() {
		q = q.Eq("month", month.String())
	}
	data, _, err := q.Order("month", nil).Execute()
	if err != nil {
		return nil, store.Wrap("list", "budget", err)
	}
	rows, err := decodeRows[core.Budget](data)
	if err != nil {
		return nil, store.Wrap("list", "budget", err)
	}
	for i := range rows {
		rows[i].Category = core.CategoryOrOther(string(rows[i].Category))
	}
	return rows, nil
}

func (r *Repository) GetBudget(_ context.Context, id string) (core.Budget, error) {
	data, _, err := r.client.From(tableBudgets).Select("*", "", false).Eq("id", id).Execute()
	if err != nil {
		return core.Budget{}, store.Wrap("get", "budget", err)
	}
	b, err := decodeOne[core.Budget](data)
	return b, store.Wrap("get", "budget", err)
}

func (r *Repository) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	_, _, err := r.client.From(tableBudgets).Insert(b, false, "", "minimal", "").Execute()
	if err != nil && isUniqueViolation(err) {
		err = fmt.Errorf("%w: budget for %s in %s already exists", core.ErrConflict, b.Category, b.Month.MonthKey())
	}
	if err != nil {
		return core.Budget{}, store.Wrap("create", "budget", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudgetLimit(_ context.Context, id string, limit decimal.Decimal) (core.Budget, error) {
	data, _, err := r.client.From(tableBudgets).
		Update(map[string]any{"monthly_limit": limit.String()}, "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return core.Budget{}, store.Wrap("update", "budget", err)
	}
	b, err := decodeOne[core.Budget](data)
	return b, store.Wrap("update", "budget", err)
}

func (r *Repository) DeleteBudget(_ context.Context, id string) error {
	data, _, err := r.client.From(tableBudgets).Delete("", "").Eq("id", id).Execute()
	if err != nil {
		return store.Wrap("delete", "budget", err)
	}
	_, err = decodeOne[core.Budget](data)
	return store.Wrap("delete", "budget", err)
}

func (r *Repository) ListGoals(_ context.Context) ([]core.Goal, error) {
	data, _, err := r.client.From(tableGoals).Select("*", "", false).Order("target_date", nil).Execute()
	if err != nil {
		return nil, store.Wrap("list", "goal", err)
	}
	rows, err := decodeRows[core.Goal](data)
	return rows, store.Wrap("list", "goal", err)
}

func (r *Repository) GetGoal(_ context.Context, id string) (core.Goal, error) {
	data, _, err := r.client.From(tableGoals).Select("*", "", false).Eq("id", id).Execute()
	if err != nil {
		return core.Goal{}, store.Wrap("get", "goal", err)
	}
	g, err := decodeOne[core.Goal](data)
	return g, store.Wrap("get", "goal", err)
}

func (r *Repository) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	if _, _, err := r.client.From(tableGoals).Insert(g, false, "", "minimal", "").Execute(); err != nil {
		return core.Goal{}, store.Wrap("create", "goal", err)
	}
	return g, nil
}

func (r *Repository) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	fields := map[string]any{
		"title":         g.Title,
		"description":   g.Description,
		"target_amount": g.TargetAmount.String(),
		"target_date":   nil,
	}
	if !g.TargetDate.IsZero() {
		fields["target_date"] = g.TargetDate.String()
	}
	data, _, err := r.client.From(tableGoals).Update(fields, "", "").Eq("id", g.ID).Execute()
	if err != nil {
		return core.Goal{}, store.Wrap("update", "goal", err)
	}
	updated, err := decodeOne[core.Goal](data)
	return updated, store.Wrap("update", "goal", err)
}

func (r *Repository) UpdateGoalProgress(ctx context.Context, id string, expected, current decimal.Decimal, completed bool) (core.Goal, error) {
	data, _, err := r.client.From(tableGoals).
		Update(map[string]any{"current_amount": current.String(), "is_completed": completed}, "", "").
		Eq("id", id).
		Eq("current_amount", expected.String()).
		Execute()
	if err != nil {
		return core.Goal{}, store.Wrap("update progress", "goal", err)
	}
	g, err := decodeOne[core.Goal](data)
	if errors.Is(err, store.ErrNotFound) {
		// Nothing matched: either the goal is gone or its amount moved on.
		if _, getErr := r.GetGoal(ctx, id); getErr == nil {
			err = store.ErrStaleProgress
		}
	}
	return g, store.Wrap("update progress", "goal", err)
}

func (r *Repository) DeleteGoal(_ context.Context, id string) error {
	data, _, err := r.client.From(tableGoals).Delete("", "").Eq("id", id).Execute()
	if err != nil {
		return store.Wrap("delete", "goal", err)
	}
	_, err = decodeOne[core.Goal](data)
	return store.Wrap("delete", "goal", err)
}

// PostgREST surfaces the Postgres SQLSTATE in the error body.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
