// Package postgres is the Store backend for a PostgreSQL server, using pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"budget/internal/core"
	"budget/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Repository)(nil)

// NewRepository migrates the database and opens a connection pool.
func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return store.Wrap("ping", "postgres", r.pool.Ping(ctx))
}

// Amounts and dates travel as text so decimal and core.Date round-trip exactly.
const txColumns = `id::text, amount::text, category, date::text, description, is_recurring`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t        core.Transaction
		amount   string
		category string
		date     string
	)
	if err := row.Scan(&t.ID, &amount, &category, &date, &t.Description, &t.IsRecurring); err != nil {
		return core.Transaction{}, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Category = core.CategoryOrOther(category)
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if !f.From.IsZero() {
		where = append(where, "date >= "+arg(f.From.String())+"::date")
	}
	if !f.To.IsZero() {
		where = append(where, "date <= "+arg(f.To.String())+"::date")
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(string(f.Category)))
	}
	q := "SELECT " + txColumns + " FROM transactions"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date DESC, seq DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, store.Wrap("list", "transaction", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, store.Wrap("list", "transaction", err)
		}
		out = append(out, t)
	}
	return out, store.Wrap("list", "transaction", rows.Err())
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Transaction{}, store.Wrap("get", "transaction", store.ErrNotFound)
	}
	t, err := scanTransaction(r.pool.QueryRow(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = $1", id))
	if err != nil {
		return core.Transaction{}, store.Wrap("get", "transaction", notFound(err))
	}
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (id, amount, category, date, description, is_recurring)
		 VALUES ($1, $2::numeric, $3, $4::date, $5, $6)`,
		t.ID, t.Amount.String(), string(t.Category), t.Date.String(), t.Description, t.IsRecurring)
	if err != nil {
		return core.Transaction{}, store.Wrap("create", "transaction", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if _, err := uuid.Parse(t.ID); err != nil {
		return core.Transaction{}, store.Wrap("update", "transaction", store.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET amount = $1::numeric, category = $2, date = $3::date, description = $4, is_recurring = $5
		 WHERE id = $6`,
		t.Amount.String(), string(t.Category), t.Date.String(), t.Description, t.IsRecurring, t.ID)
	if err := affectedOne(tag, err); err != nil {
		return core.Transaction{}, store.Wrap("update", "transaction", err)
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.Wrap("delete", "transaction", store.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return store.Wrap("delete", "transaction", affectedOne(tag, err))
}

const budgetColumns = `id::text, category, monthly_limit::text, month::text`

func scanBudget(row pgx.Row) (core.Budget, error) {
	var (
		b                      core.Budget
		category, limit, month string
	)
	if err := row.Scan(&b.ID, &category, &limit, &month); err != nil {
		return core.Budget{}, err
	}
	var err error
	if b.MonthlyLimit, err = decimal.NewFromString(limit); err != nil {
		return core.Budget{}, fmt.Errorf("budget %s limit: %w", b.ID, err)
	}
	if b.Month, err = core.ParseDate(month); err != nil {
		return core.Budget{}, fmt.Errorf("budget %s: %w", b.ID, err)
	}
	b.Category = core.CategoryOrOther(category)
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, month core.Date) ([]core.Budget, error) {
	q := "SELECT " + budgetColumns + " FROM budgets"
	var args []any
	if !month.IsZero() {
		q += " WHERE month = $1::date"
		args = append(args, month.String())
	}
	q += " ORDER BY month DESC, category ASC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, store.Wrap("list", "budget", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, store.Wrap("list", "budget", err)
		}
		out = append(out, b)
	}
	return out, store.Wrap("list", "budget", rows.Err())
}

func (r *Repository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Budget{}, store.Wrap("get", "budget", store.ErrNotFound)
	}
	b, err := scanBudget(r.pool.QueryRow(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = $1", id))
	if err != nil {
		return core.Budget{}, store.Wrap("get", "budget", notFound(err))
	}
	return b, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO budgets (id, category, monthly_limit, month) VALUES ($1, $2, $3::numeric, $4::date)`,
		b.ID, string(b.Category), b.MonthlyLimit.String(), b.Month.String())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		err = fmt.Errorf("%w: budget for %s in %s already exists", core.ErrConflict, b.Category, b.Month.MonthKey())
	}
	if err != nil {
		return core.Budget{}, store.Wrap("create", "budget", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudgetLimit(ctx context.Context, id string, limit decimal.Decimal) (core.Budget, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Budget{}, store.Wrap("update", "budget", store.ErrNotFound)
	}
	b, err := scanBudget(r.pool.QueryRow(ctx,
		`UPDATE budgets SET monthly_limit = $1::numeric WHERE id = $2 RETURNING `+budgetColumns, limit.String(), id))
	if err != nil {
		return core.Budget{}, store.Wrap("update", "budget", notFound(err))
	}
	return b, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.Wrap("delete", "budget", store.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	return store.Wrap("delete", "budget", affectedOne(tag, err))
}

const goalColumns = `id::text, title, description, target_amount::text, current_amount::text, COALESCE(target_date::text, ''), is_completed`

func scanGoal(row pgx.Row) (core.Goal, error) {
	var (
		g                      core.Goal
		target, current, tdate string
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &target, &current, &tdate, &g.IsCompleted); err != nil {
		return core.Goal{}, err
	}
	var err error
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.Goal{}, fmt.Errorf("goal %s target: %w", g.ID, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return core.Goal{}, fmt.Errorf("goal %s current: %w", g.ID, err)
	}
	if tdate != "" {
		if g.TargetDate, err = core.ParseDate(tdate); err != nil {
			return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
		}
	}
	return g, nil
}

// nullableDate maps the zero date to SQL NULL.
func nullableDate(d core.Date) *string {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

func (r *Repository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+goalColumns+" FROM goals ORDER BY target_date DESC NULLS LAST, id ASC")
	if err != nil {
		return nil, store.Wrap("list", "goal", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, store.Wrap("list", "goal", err)
		}
		out = append(out, g)
	}
	return out, store.Wrap("list", "goal", rows.Err())
}

func (r *Repository) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Goal{}, store.Wrap("get", "goal", store.ErrNotFound)
	}
	g, err := scanGoal(r.pool.QueryRow(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = $1", id))
	if err != nil {
		return core.Goal{}, store.Wrap("get", "goal", notFound(err))
	}
	return g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO goals (id, title, description, target_amount, current_amount, target_date, is_completed)
		 VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::date, $7)`,
		g.ID, g.Title, g.Description, g.TargetAmount.String(), g.CurrentAmount.String(), nullableDate(g.TargetDate), g.IsCompleted)
	if err != nil {
		return core.Goal{}, store.Wrap("create", "goal", err)
	}
	return g, nil
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if _, err := uuid.Parse(g.ID); err != nil {
		return core.Goal{}, store.Wrap("update", "goal", store.ErrNotFound)
	}
	updated, err := scanGoal(r.pool.QueryRow(ctx,
		`UPDATE goals SET title = $1, description = $2, target_amount = $3::numeric, target_date = $4::date
		 WHERE id = $5 RETURNING `+goalColumns,
		g.Title, g.Description, g.TargetAmount.String(), nullableDate(g.TargetDate), g.ID))
	if err != nil {
		return core.Goal{}, store.Wrap("update", "goal", notFound(err))
	}
	return updated, nil
}

func (r *Repository) UpdateGoalProgress(ctx context.Context, id string, expected, current decimal.Decimal, completed bool) (core.Goal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Goal{}, store.Wrap("update progress", "goal", store.ErrNotFound)
	}
	g, err := scanGoal(r.pool.QueryRow(ctx,
		`UPDATE goals SET current_amount = $1::numeric, is_completed = $2
		 WHERE id = $3 AND current_amount = $4::numeric RETURNING `+goalColumns,
		current.String(), completed, id, expected.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		err = r.staleOrMissing(ctx, id)
	}
	if err != nil {
		return core.Goal{}, store.Wrap("update progress", "goal", err)
	}
	return g, nil
}

// staleOrMissing explains why a conditional goal update matched no row.
func (r *Repository) staleOrMissing(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM goals WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrStaleProgress
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.Wrap("delete", "goal", store.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id)
	return store.Wrap("delete", "goal", affectedOne(tag, err))
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func affectedOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
