package services

import (
	"context"
	"fmt"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"

	"github.com/shopspring/decimal"
)

// BuildBudgetLines computes progress for every budget against the expenses
// that fall inside w.
func BuildBudgetLines(budgets []core.Budget, txs []core.Transaction, w core.Window) []core.BudgetLine {
	lines := make([]core.BudgetLine, 0, len(budgets))
	for _, b := range budgets {
		spend := core.CategorySpend(txs, b.Category, w)
		lines = append(lines, core.BudgetLine{
			Budget:   b,
			Label:    b.Category.Label(),
			Progress: core.ComputeBudgetProgress(b, spend),
		})
	}
	return lines
}

// AvailableCategories lists the expense categories that have no budget yet
// among budgets. When editing is set its own category stays available.
func AvailableCategories(budgets []core.Budget, editing *core.Budget) []core.Category {
	taken := make(map[core.Category]bool, len(budgets))
	for _, b := range budgets {
		taken[b.Category] = true
	}
	if editing != nil {
		delete(taken, editing.Category)
	}
	var out []core.Category
	for _, c := range core.ExpenseCategories() {
		if !taken[c] {
			out = append(out, c)
		}
	}
	return out
}

// BudgetAggregator computes the budget page for a month.
type BudgetAggregator struct {
	budgets store.BudgetStore
	txs     store.TransactionStore
	cache   cache.Cache[core.BudgetMonth]
	now     func() time.Time
}

func NewBudgetAggregator(budgets store.BudgetStore, txs store.TransactionStore) *BudgetAggregator {
	return &BudgetAggregator{budgets: budgets, txs: txs, now: time.Now}
}

// WithCache enables month caching.
func (a *BudgetAggregator) WithCache(c cache.Cache[core.BudgetMonth]) *BudgetAggregator {
	a.cache = c
	return a
}

// WithClock overrides the time source used for the default month.
func (a *BudgetAggregator) WithClock(now func() time.Time) *BudgetAggregator {
	a.now = now
	return a
}

// Invalidate drops cached months. Wire it as a Notifier listener.
func (a *BudgetAggregator) Invalidate(context.Context, amqp.LedgerEvent) {
	if a.cache != nil {
		a.cache.Purge()
	}
}

// CurrentMonth is the first day of the current calendar month.
func (a *BudgetAggregator) CurrentMonth() core.Date {
	return core.DateOf(a.now()).MonthStart()
}

// Month returns every budget of month with its progress and the totals.
// A zero month means the current one.
func (a *BudgetAggregator) Month(ctx context.Context, month core.Date) (core.BudgetMonth, error) {
	if month.IsZero() {
		month = a.CurrentMonth()
	}
	month = month.MonthStart()
	key := month.MonthKey()
	if a.cache != nil {
		if m, ok := a.cache.Get(key); ok {
			return m, nil
		}
	}

	w := core.MonthWindow(month.Time)
	budgets, err := a.budgets.ListBudgets(ctx, month)
	if err != nil {
		return core.BudgetMonth{}, fmt.Errorf("load budgets: %w", err)
	}
	txs, err := a.txs.ListTransactions(ctx, store.TransactionFilter{}.Window(w))
	if err != nil {
		return core.BudgetMonth{}, fmt.Errorf("load transactions: %w", err)
	}

	m := core.BudgetMonth{
		Month:  key,
		Lines:  BuildBudgetLines(budgets, txs, w),
		Totals: core.SummarizeTotals(budgets, txs),
	}
	if a.cache != nil {
		a.cache.Set(key, m)
	}
	return m, nil
}

// AvailableCategories lists the expense categories still free in month. A
// zero month means the current one.
func (a *BudgetAggregator) AvailableCategories(ctx context.Context, month core.Date, editingID string) ([]core.Category, error) {
	if month.IsZero() {
		month = a.CurrentMonth()
	}
	budgets, err := a.budgets.ListBudgets(ctx, month.MonthStart())
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	var editing *core.Budget
	for i := range budgets {
		if budgets[i].ID == editingID {
			editing = &budgets[i]
			break
		}
	}
	return AvailableCategories(budgets, editing), nil
}

// BudgetService writes monthly budgets.
type BudgetService struct {
	budgets  store.BudgetStore
	notifier *Notifier
	now      func() time.Time
	logger   *log.Logger
}

func NewBudgetService(budgets store.BudgetStore, notifier *Notifier, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BudgetService{
		budgets:  budgets,
		notifier: notifier,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentBudget),
	}
}

// WithClock overrides the time source used for the default month.
func (s *BudgetService) WithClock(now func() time.Time) *BudgetService {
	s.now = now
	return s
}

// Create stores a new budget. The month is normalized to its first day.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.Month.IsZero() {
		b.Month = core.DateOf(s.now()).MonthStart()
	}
	b.Month = b.Month.MonthStart()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	existing, err := s.budgets.ListBudgets(ctx, b.Month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("load budgets: %w", err)
	}
	for _, e := range existing {
		if e.Category == b.Category {
			return core.Budget{}, fmt.Errorf("budget for %s in %s: %w", b.Category, b.Month.MonthKey(), core.ErrConflict)
		}
	}

	created, err := s.budgets.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "Budget created",
		log.FieldEntityID, created.ID,
		log.FieldCategory, created.Category,
		log.FieldMonth, created.Month.MonthKey(),
		log.FieldLimit, created.MonthlyLimit.StringFixed(2))
	s.notifier.notify(ctx, amqp.NewLedgerEvent(amqp.BudgetCreated, created.ID, created.Month.MonthKey(), string(created.Category)))
	return created, nil
}

// UpdateLimit changes the monthly limit. Category and month are fixed once
// created.
func (s *BudgetService) UpdateLimit(ctx context.Context, id string, limit decimal.Decimal) (core.Budget, error) {
	if limit.IsNegative() {
		return core.Budget{}, fmt.Errorf("monthly limit must not be negative: %w", core.ErrInvalidArgument)
	}
	updated, err := s.budgets.UpdateBudgetLimit(ctx, id, limit.Round(2))
	if err != nil {
		return core.Budget{}, err
	}
	s.notifier.notify(ctx, amqp.NewLedgerEvent(amqp.BudgetUpdated, updated.ID, updated.Month.MonthKey(), string(updated.Category)))
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, id string) error {
	b, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if err := s.budgets.DeleteBudget(ctx, id); err != nil {
		return err
	}
	s.notifier.notify(ctx, amqp.NewLedgerEvent(amqp.BudgetDeleted, id, b.Month.MonthKey(), string(b.Category)))
	return nil
}
