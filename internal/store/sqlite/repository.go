// Package sqlite is the embedded Store backend built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"budget/internal/core"
	"budget/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Repository struct {
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

// NewRepository opens dbPath, creating parent directories, and migrates it.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return store.Wrap("ping", "sqlite", r.db.PingContext(ctx))
}

const txColumns = `id, amount, category, date, description, is_recurring`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		category string
		date     string
	)
	if err := row.Scan(&t.ID, &t.Amount, &category, &date, &t.Description, &t.IsRecurring); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Date = d
	t.Category = core.CategoryOrOther(category)
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	q := "SELECT " + txColumns + " FROM transactions"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date DESC, rowid DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
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
	row := r.db.QueryRowContext(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, store.Wrap("get", "transaction", notFound(err))
	}
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, category, date, description, is_recurring) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount, string(t.Category), t.Date.String(), t.Description, t.IsRecurring)
	if err != nil {
		return core.Transaction{}, store.Wrap("create", "transaction", err)
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite", "id", t.ID, "amount", t.Amount.String(), "category", t.Category)
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, category = ?, date = ?, description = ?, is_recurring = ? WHERE id = ?`,
		t.Amount, string(t.Category), t.Date.String(), t.Description, t.IsRecurring, t.ID)
	if err := affectedOne(res, err); err != nil {
		return core.Transaction{}, store.Wrap("update", "transaction", err)
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return store.Wrap("delete", "transaction", affectedOne(res, err))
}

const budgetColumns = `id, category, monthly_limit, month`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b        core.Budget
		category string
		month    string
	)
	if err := row.Scan(&b.ID, &category, &b.MonthlyLimit, &month); err != nil {
		return core.Budget{}, err
	}
	m, err := core.ParseDate(month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s: %w", b.ID, err)
	}
	b.Month = m
	b.Category = core.CategoryOrOther(category)
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, month core.Date) ([]core.Budget, error) {
	q := "SELECT " + budgetColumns + " FROM budgets"
	var args []any
	if !month.IsZero() {
		q += " WHERE month = ?"
		args = append(args, month.String())
	}
	q += " ORDER BY month DESC, category ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
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
	b, err := scanBudget(r.db.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id))
	if err != nil {
		return core.Budget{}, store.Wrap("get", "budget", notFound(err))
	}
	return b, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, category, monthly_limit, month) VALUES (?, ?, ?, ?)`,
		b.ID, string(b.Category), b.MonthlyLimit, b.Month.String())
	if isUniqueViolation(err) {
		err = fmt.Errorf("%w: budget for %s in %s already exists", core.ErrConflict, b.Category, b.Month.MonthKey())
	}
	if err != nil {
		return core.Budget{}, store.Wrap("create", "budget", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudgetLimit(ctx context.Context, id string, limit decimal.Decimal) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE budgets SET monthly_limit = ? WHERE id = ? RETURNING `+budgetColumns, limit, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, store.Wrap("update", "budget", notFound(err))
	}
	return b, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	return store.Wrap("delete", "budget", affectedOne(res, err))
}

const goalColumns = `id, title, description, target_amount, current_amount, target_date, is_completed`

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g          core.Goal
		targetDate string
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.TargetAmount, &g.CurrentAmount, &targetDate, &g.IsCompleted); err != nil {
		return core.Goal{}, err
	}
	if targetDate != "" {
		d, err := core.ParseDate(targetDate)
		if err != nil {
			return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
		}
		g.TargetDate = d
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+goalColumns+" FROM goals ORDER BY target_date DESC, id ASC")
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
	g, err := scanGoal(r.db.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id))
	if err != nil {
		return core.Goal{}, store.Wrap("get", "goal", notFound(err))
	}
	return g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, title, description, target_amount, current_amount, target_date, is_completed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Description, g.TargetAmount, g.CurrentAmount, g.TargetDate.String(), g.IsCompleted)
	if err != nil {
		return core.Goal{}, store.Wrap("create", "goal", err)
	}
	return g, nil
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE goals SET title = ?, description = ?, target_amount = ?, target_date = ? WHERE id = ? RETURNING `+goalColumns,
		g.Title, g.Description, g.TargetAmount, g.TargetDate.String(), g.ID)
	updated, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, store.Wrap("update", "goal", notFound(err))
	}
	return updated, nil
}

// UpdateGoalProgress compares amounts in their canonical decimal text form,
// which is how every write stores them.
func (r *Repository) UpdateGoalProgress(ctx context.Context, id string, expected, current decimal.Decimal, completed bool) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE goals SET current_amount = ?, is_completed = ? WHERE id = ? AND current_amount = ? RETURNING `+goalColumns,
		current.String(), completed, id, expected.String())
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = r.staleOrMissing(ctx, id)
	}
	if err != nil {
		return core.Goal{}, store.Wrap("update progress", "goal", err)
	}
	return g, nil
}

// staleOrMissing explains why a conditional goal update matched no row.
func (r *Repository) staleOrMissing(ctx context.Context, id string) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrStaleProgress
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	return store.Wrap("delete", "goal", affectedOne(res, err))
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
