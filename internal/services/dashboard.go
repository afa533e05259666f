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

	"golang.org/x/sync/errgroup"
)

const (
	recentTransactionsLimit = 10
	dashboardGoalsLimit     = 3
)

// DashboardAggregator computes the current-month cash flow summary and the
// rest of the dashboard.
type DashboardAggregator struct {
	txs     store.TransactionStore
	budgets store.BudgetStore
	goals   store.GoalStore
	cache   cache.Cache[core.DashboardSummary]
	now     func() time.Time
	logger  *log.Logger
}

func NewDashboardAggregator(txs store.TransactionStore, budgets store.BudgetStore, goals store.GoalStore, logger *log.Logger) *DashboardAggregator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DashboardAggregator{
		txs:     txs,
		budgets: budgets,
		goals:   goals,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentDashboard),
	}
}

// WithCache enables summary caching keyed by month.
func (d *DashboardAggregator) WithCache(c cache.Cache[core.DashboardSummary]) *DashboardAggregator {
	d.cache = c
	return d
}

// WithClock overrides the time source used to pick the current month.
func (d *DashboardAggregator) WithClock(now func() time.Time) *DashboardAggregator {
	d.now = now
	return d
}

// Invalidate drops cached summaries. Wire it as a Notifier listener.
func (d *DashboardAggregator) Invalidate(context.Context, amqp.LedgerEvent) {
	if d.cache != nil {
		d.cache.Purge()
	}
}

// Summary returns income, expenses and balance for the current calendar month
// and the expense change against the previous month.
func (d *DashboardAggregator) Summary(ctx context.Context) (core.DashboardSummary, error) {
	current := core.MonthWindow(d.now())
	key := current.Start.MonthKey()
	if d.cache != nil {
		if s, ok := d.cache.Get(key); ok {
			return s, nil
		}
	}

	previous := core.MonthWindow(core.PreviousMonth(current.Start).Time)
	txs, err := d.txs.ListTransactions(ctx, store.TransactionFilter{From: previous.Start, To: current.End})
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("load transactions: %w", err)
	}

	s := summarize(key, core.FilterWindow(txs, current), core.FilterWindow(txs, previous))
	if d.cache != nil {
		d.cache.Set(key, s)
	}
	return s, nil
}

func summarize(month string, current, previous []core.Transaction) core.DashboardSummary {
	income := core.Income(current)
	expenses := core.Expenses(current)
	return core.DashboardSummary{
		Month:                month,
		Income:               income,
		Expenses:             expenses,
		Balance:              income.Sub(expenses),
		ExpenseChangePercent: core.MonthOverMonthChange(expenses, core.Expenses(previous)),
	}
}

// Overview gathers everything the dashboard shows. The store reads are
// independent and run concurrently.
func (d *DashboardAggregator) Overview(ctx context.Context) (core.DashboardOverview, error) {
	current := core.MonthWindow(d.now())

	var (
		summary   core.DashboardSummary
		monthTxs  []core.Transaction
		recent    []core.Transaction
		budgets   []core.Budget
		goalViews []core.GoalView
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = d.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		monthTxs, err = d.txs.ListTransactions(gctx, store.TransactionFilter{}.Window(current))
		if err != nil {
			return fmt.Errorf("load month transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = d.txs.ListTransactions(gctx, store.TransactionFilter{Limit: recentTransactionsLimit})
		if err != nil {
			return fmt.Errorf("load recent transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = d.budgets.ListBudgets(gctx, current.Start)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		goals, err := d.goals.ListGoals(gctx)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		active, _ := core.SplitGoals(goals)
		if len(active) > dashboardGoalsLimit {
			active = active[:dashboardGoalsLimit]
		}
		goalViews, err = goalViewsOf(active)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.DashboardOverview{}, err
	}

	return core.DashboardOverview{
		Summary:            summary,
		Budgets:            BuildBudgetLines(budgets, monthTxs, current),
		ActiveGoals:        goalViews,
		RecentTransactions: recent,
		SpendingByCategory: core.SpendingByCategory(monthTxs),
	}, nil
}

// SpendingByCategory returns the current month's expense breakdown.
func (d *DashboardAggregator) SpendingByCategory(ctx context.Context) ([]core.CategoryAmount, error) {
	current := core.MonthWindow(d.now())
	txs, err := d.txs.ListTransactions(ctx, store.TransactionFilter{}.Window(current))
	if err != nil {
		return nil, fmt.Errorf("load month transactions: %w", err)
	}
	return core.SpendingByCategory(txs), nil
}
