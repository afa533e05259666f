package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/sheets"
	"budget/internal/store"

	"github.com/shopspring/decimal"
)

// Alert is raised when a budget's spending exceeds its limit.
type Alert struct {
	Month    string
	Category core.Category
	Label    string
	Limit    decimal.Decimal
	Spent    decimal.Decimal
	OverBy   decimal.Decimal
}

// LedgerWorker reacts to ledger events: it re-checks the affected month's
// budgets and mirrors new transactions to the spreadsheet.
type LedgerWorker struct {
	txs      store.TransactionStore
	budgets  *services.BudgetAggregator
	exporter sheets.TransactionExporter
	now      func() time.Time
	logger   *log.Logger

	mu      sync.Mutex
	alerted map[string]decimal.Decimal
}

// NewLedgerWorker accepts a nil exporter when Sheets export is disabled.
func NewLedgerWorker(txs store.TransactionStore, budgets *services.BudgetAggregator, exporter sheets.TransactionExporter, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerWorker{
		txs:      txs,
		budgets:  budgets,
		exporter: exporter,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentWorker),
		alerted:  make(map[string]decimal.Decimal),
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP. A returned
// error asks the consumer to requeue the message.
func (w *LedgerWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	log.NewStructuredLogger(w.logger).LogLedgerChange(ctx, ev.Type.Action(), ev.Type.Entity(), ev.EntityID, ev.Month)

	switch ev.Type.Entity() {
	case "transaction", "budget":
	default:
		return nil
	}

	if ev.Type == amqp.TransactionCreated && w.exporter != nil {
		if err := w.export(ctx, ev.EntityID); err != nil {
			return fmt.Errorf("export transaction: %w", err)
		}
	}

	month, err := eventMonth(ev)
	if err != nil {
		w.logger.WarnContext(ctx, "Ledger event without a usable month, checking the current one",
			log.FieldEntityID, ev.EntityID, log.FieldError, err)
		month = core.DateOf(w.now()).MonthStart()
	}
	if _, err := w.CheckMonth(ctx, month); err != nil {
		return fmt.Errorf("check budgets: %w", err)
	}
	return nil
}

func eventMonth(ev *amqp.LedgerEvent) (core.Date, error) {
	if ev.Month == "" {
		return core.Date{}, errors.New("empty month")
	}
	return core.ParseMonth(ev.Month)
}

// CheckMonth recomputes the budget lines of month and logs a warning for
// every budget that went over its limit since the last check.
func (w *LedgerWorker) CheckMonth(ctx context.Context, month core.Date) ([]Alert, error) {
	m, err := w.budgets.Month(ctx, month)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var alerts []Alert
	for _, line := range m.Lines {
		key := m.Month + "|" + string(line.Budget.Category)
		if !line.Progress.IsOverBudget {
			delete(w.alerted, key)
			continue
		}
		if prev, ok := w.alerted[key]; ok && prev.Equal(line.Progress.Spent) {
			continue
		}
		w.alerted[key] = line.Progress.Spent

		a := Alert{
			Month:    m.Month,
			Category: line.Budget.Category,
			Label:    line.Label,
			Limit:    line.Progress.Limit,
			Spent:    line.Progress.Spent,
			OverBy:   line.Progress.OverBy(),
		}
		alerts = append(alerts, a)
		w.logger.WarnContext(ctx, "Budget exceeded",
			log.FieldMonth, a.Month,
			log.FieldCategory, a.Category,
			log.FieldLimit, a.Limit.StringFixed(2),
			log.FieldSpent, a.Spent.StringFixed(2),
			log.FieldOverBy, a.OverBy.StringFixed(2))
	}
	return alerts, nil
}

// StartupCheck runs the budget check for the current month so alerts missed
// while the worker was down are reported.
func (w *LedgerWorker) StartupCheck(ctx context.Context) error {
	month := core.DateOf(w.now()).MonthStart()
	alerts, err := w.CheckMonth(ctx, month)
	if err != nil {
		return fmt.Errorf("startup budget check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup budget check completed",
		log.FieldMonth, month.MonthKey(),
		"alerts", len(alerts))
	return nil
}

func (w *LedgerWorker) export(ctx context.Context, id string) error {
	tx, err := w.txs.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted before we got to it.
		w.logger.InfoContext(ctx, "Transaction no longer exists, skipping export", log.FieldEntityID, id)
		return nil
	}
	if err != nil {
		return err
	}

	exists, err := w.exporter.HasTransaction(ctx, tx)
	if err != nil {
		return err
	}
	if exists {
		w.logger.InfoContext(ctx, "Transaction already exported", log.FieldEntityID, id)
		return nil
	}

	ref, err := w.exporter.AppendTransaction(ctx, tx)
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Successfully exported transaction",
		log.FieldEntityID, id,
		log.FieldSheetsRef, ref,
		log.FieldAmount, tx.Amount.StringFixed(2))
	return nil
}
