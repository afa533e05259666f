package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
	"budget/internal/store/memory"

	"github.com/shopspring/decimal"
)

var march = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

func seed(t *testing.T, st *memory.Store) {
	t.Helper()
	ctx := context.Background()
	txs := []core.Transaction{
		{Amount: decimal.NewFromInt(3000), Category: core.IncomeSalary, Date: core.NewDate(2025, 3, 1), Description: "Salary"},
		{Amount: decimal.NewFromInt(-450), Category: core.FoodGroceries, Date: core.NewDate(2025, 3, 5), Description: "Market"},
		{Amount: decimal.NewFromInt(-80), Category: core.FoodDining, Date: core.NewDate(2025, 3, 7), Description: "Pizza night"},
	}
	for _, tx := range txs {
		if _, err := st.CreateTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}
	for _, b := range []core.Budget{
		{Category: core.FoodGroceries, MonthlyLimit: decimal.NewFromInt(400), Month: core.NewDate(2025, 3, 1)},
		{Category: core.FoodDining, MonthlyLimit: decimal.NewFromInt(200), Month: core.NewDate(2025, 3, 1)},
	} {
		if _, err := st.CreateBudget(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRenderOverview(t *testing.T) {
	st := memory.New()
	seed(t, st)
	dash := services.NewDashboardAggregator(st, st, st, quietLogger()).WithClock(march)

	var out bytes.Buffer
	if err := renderOverview(context.Background(), &out, dash); err != nil {
		t.Fatalf("renderOverview: %v", err)
	}
	for _, want := range []string{"2025-03", "$3000.00", "$530.00", "Groceries", "over by $50.00", "Pizza night"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRenderBudgets(t *testing.T) {
	st := memory.New()
	seed(t, st)
	view := services.NewBudgetAggregator(st, st).WithClock(march)

	var out bytes.Buffer
	if err := renderBudgets(context.Background(), &out, view, core.NewDate(2025, 3, 1)); err != nil {
		t.Fatalf("renderBudgets: %v", err)
	}
	for _, want := range []string{"BUDGETS  2025-03", "Dining Out", "$600.00", "$530.00"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := renderBudgets(context.Background(), &out, view, core.NewDate(2025, 4, 1)); err != nil {
		t.Fatalf("renderBudgets: %v", err)
	}
	if !strings.Contains(out.String(), "(none)") {
		t.Errorf("empty month output:\n%s", out.String())
	}
}

func TestContribute(t *testing.T) {
	st := memory.New()
	goals := services.NewGoalTracker(st, nil, quietLogger())
	g, err := goals.Create(context.Background(), core.Goal{
		Title:        "Bike",
		TargetAmount: decimal.NewFromInt(100),
		TargetDate:   core.NewDate(2025, 12, 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := contribute(context.Background(), &out, goals, g.ID, "60"); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if !strings.Contains(out.String(), "$60.00 of $100.00") || strings.Contains(out.String(), "Goal reached") {
		t.Errorf("first contribution output: %q", out.String())
	}

	out.Reset()
	if err := contribute(context.Background(), &out, goals, g.ID, "40,00"); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if !strings.Contains(out.String(), "Goal reached") {
		t.Errorf("second contribution output: %q", out.String())
	}

	out.Reset()
	if err := renderGoals(context.Background(), &out, goals); err != nil {
		t.Fatalf("renderGoals: %v", err)
	}
	if !strings.Contains(out.String(), "Completed 1") || !strings.Contains(out.String(), "Bike") {
		t.Errorf("goals output:\n%s", out.String())
	}

	if err := contribute(context.Background(), &out, goals, g.ID, "-5"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("negative amount err = %v", err)
	}
	if err := contribute(context.Background(), &out, goals, "missing", "5"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing goal err = %v", err)
	}
}
