package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/services"
	sheetsmem "budget/internal/sheets/memory"
	"budget/internal/store/memory"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*memory.Store, *sheetsmem.Store, *LedgerWorker) {
	t.Helper()
	s := memory.New()
	exp := sheetsmem.New()
	w := NewLedgerWorker(s, services.NewBudgetAggregator(s, s), exp, nil)
	w.now = func() time.Time { return time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC) }
	return s, exp, w
}

func addTx(t *testing.T, s *memory.Store, amount string, c core.Category, d core.Date) core.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), core.Transaction{Amount: dec(amount), Category: c, Date: d, Description: "x"})
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestCheckMonthAlerts(t *testing.T) {
	ctx := context.Background()
	s, _, w := setup(t)
	march := core.NewDate(2025, 3, 1)
	if _, err := s.CreateBudget(ctx, core.Budget{Category: core.FoodDining, MonthlyLimit: dec("100"), Month: march}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{Category: core.BillsPhone, MonthlyLimit: dec("50"), Month: march}); err != nil {
		t.Fatal(err)
	}

	addTx(t, s, "-80", core.FoodDining, core.NewDate(2025, 3, 2))
	alerts, err := w.CheckMonth(ctx, march)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 0 {
		t.Fatalf("alerts under limit = %+v", alerts)
	}

	addTx(t, s, "-45.50", core.FoodDining, core.NewDate(2025, 3, 9))
	alerts, _ = w.CheckMonth(ctx, march)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v, want 1", alerts)
	}
	a := alerts[0]
	if a.Category != core.FoodDining || !a.OverBy.Equal(dec("25.5")) || a.Month != "2025-03" {
		t.Errorf("alert = %+v", a)
	}

	if again, _ := w.CheckMonth(ctx, march); len(again) != 0 {
		t.Errorf("unchanged spending alerted twice: %+v", again)
	}

	addTx(t, s, "-1", core.FoodDining, core.NewDate(2025, 3, 10))
	if more, _ := w.CheckMonth(ctx, march); len(more) != 1 {
		t.Errorf("further spending should alert again, got %+v", more)
	}
}

func TestHandleLedgerEventExports(t *testing.T) {
	ctx := context.Background()
	s, exp, w := setup(t)
	tx := addTx(t, s, "-12", core.FoodGroceries, core.NewDate(2025, 3, 4))
	ev := amqp.NewLedgerEvent(amqp.TransactionCreated, tx.ID, "2025-03", string(tx.Category))

	if err := w.HandleLedgerEvent(ctx, &ev); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}
	if err := w.HandleLedgerEvent(ctx, &ev); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if rows := exp.Rows(); len(rows) != 1 || rows[0][0] != tx.ID {
		t.Fatalf("rows = %v, want exactly one export", rows)
	}

	updated := amqp.NewLedgerEvent(amqp.TransactionUpdated, tx.ID, "2025-03", "")
	if err := w.HandleLedgerEvent(ctx, &updated); err != nil {
		t.Fatal(err)
	}
	if len(exp.Rows()) != 1 {
		t.Errorf("updates must not export")
	}
}

func TestHandleLedgerEventMissingTransaction(t *testing.T) {
	_, exp, w := setup(t)
	ev := amqp.NewLedgerEvent(amqp.TransactionCreated, "gone", "2025-03", "")
	if err := w.HandleLedgerEvent(context.Background(), &ev); err != nil {
		t.Fatalf("deleted transaction should be skipped, got %v", err)
	}
	if len(exp.Rows()) != 0 {
		t.Errorf("nothing should be exported")
	}
}

type failingExporter struct{}

func (failingExporter) AppendTransaction(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func (failingExporter) HasTransaction(context.Context, core.Transaction) (bool, error) {
	return false, nil
}

func TestHandleLedgerEventExportFailureRequeues(t *testing.T) {
	s := memory.New()
	w := NewLedgerWorker(s, services.NewBudgetAggregator(s, s), failingExporter{}, nil)
	tx := addTx(t, s, "-3", core.Other, core.NewDate(2025, 3, 1))
	ev := amqp.NewLedgerEvent(amqp.TransactionCreated, tx.ID, "2025-03", "")
	if err := w.HandleLedgerEvent(context.Background(), &ev); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestHandleLedgerEventIgnoresGoals(t *testing.T) {
	_, _, w := setup(t)
	ev := amqp.NewLedgerEvent(amqp.GoalContributed, "g1", "", "")
	if err := w.HandleLedgerEvent(context.Background(), &ev); err != nil {
		t.Fatal(err)
	}
}

func TestStartupCheck(t *testing.T) {
	ctx := context.Background()
	s, _, w := setup(t)
	if _, err := s.CreateBudget(ctx, core.Budget{Category: core.FoodDining, MonthlyLimit: dec("0"), Month: core.NewDate(2025, 3, 1)}); err != nil {
		t.Fatal(err)
	}
	addTx(t, s, "-1", core.FoodDining, core.NewDate(2025, 3, 1))
	if err := w.StartupCheck(ctx); err != nil {
		t.Fatal(err)
	}
	if len(w.alerted) != 1 {
		t.Errorf("startup check should record the zero-limit overrun, alerted = %v", w.alerted)
	}
}
