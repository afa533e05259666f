// Package storetest holds a behaviour suite every store.Store backend must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
	"budget/internal/store"

	"github.com/shopspring/decimal"
)

// Run exercises s against the store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("goals", func(t *testing.T) { testGoals(t, newStore(t)) })
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	seed := []core.Transaction{
		{Amount: dec("-10.50"), Category: core.FoodDining, Date: core.NewDate(2025, 1, 5), Description: "lunch"},
		{Amount: dec("2500"), Category: core.IncomeSalary, Date: core.NewDate(2025, 1, 1), Description: "salary"},
		{Amount: dec("-40"), Category: core.FoodGroceries, Date: core.NewDate(2025, 2, 3), Description: "market", IsRecurring: true},
		{Amount: dec("-7"), Category: core.FoodDining, Date: core.NewDate(2025, 1, 5), Description: "coffee"},
	}
	created := make([]core.Transaction, 0, len(seed))
	for _, tr := range seed {
		c, err := s.CreateTransaction(ctx, tr)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if c.ID == "" {
			t.Fatalf("expected id to be assigned")
		}
		created = append(created, c)
	}

	all, err := s.ListTransactions(ctx, store.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []string{"market", "coffee", "lunch", "salary"}
	if len(all) != len(wantOrder) {
		t.Fatalf("expected %d transactions, got %d", len(wantOrder), len(all))
	}
	for i, d := range wantOrder {
		if all[i].Description != d {
			t.Fatalf("position %d: expected %q, got %q", i, d, all[i].Description)
		}
	}
	if !all[0].IsRecurring || !all[0].Amount.Equal(dec("-40")) || !all[0].Date.Equal(core.NewDate(2025, 2, 3)) {
		t.Fatalf("fields not persisted: %+v", all[0])
	}

	jan := store.TransactionFilter{}.Window(core.MonthWindow(core.NewDate(2025, 1, 1).Time))
	inJan, err := s.ListTransactions(ctx, jan)
	if err != nil || len(inJan) != 3 {
		t.Fatalf("expected 3 january transactions, got %d (err=%v)", len(inJan), err)
	}
	dining, err := s.ListTransactions(ctx, store.TransactionFilter{Category: core.FoodDining})
	if err != nil || len(dining) != 2 {
		t.Fatalf("expected 2 dining transactions, got %d (err=%v)", len(dining), err)
	}
	limited, err := s.ListTransactions(ctx, store.TransactionFilter{Limit: 1})
	if err != nil || len(limited) != 1 || limited[0].Description != "market" {
		t.Fatalf("unexpected limited list %+v (err=%v)", limited, err)
	}

	upd := created[0]
	upd.Amount = dec("-12")
	upd.Description = "lunch with tip"
	if _, err := s.UpdateTransaction(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetTransaction(ctx, upd.ID)
	if err != nil || got.Description != "lunch with tip" || !got.Amount.Equal(dec("-12")) {
		t.Fatalf("unexpected after update %+v (err=%v)", got, err)
	}

	if err := s.DeleteTransaction(ctx, upd.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, upd.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, upd.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	missing := core.Transaction{ID: "00000000-0000-0000-0000-000000000000", Amount: dec("-1"), Category: core.Other, Date: core.NewDate(2025, 1, 1), Description: "x"}
	if _, err := s.UpdateTransaction(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func testBudgets(t *testing.T, s store.Store) {
	ctx := context.Background()
	jan := core.NewDate(2025, 1, 1)
	feb := core.NewDate(2025, 2, 1)

	b1, err := s.CreateBudget(ctx, core.Budget{Category: core.FoodGroceries, MonthlyLimit: dec("300"), Month: jan})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{Category: core.FoodDining, MonthlyLimit: dec("150"), Month: jan}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{Category: core.FoodGroceries, MonthlyLimit: dec("320"), Month: feb}); err != nil {
		t.Fatalf("create same category other month: %v", err)
	}
	_, err = s.CreateBudget(ctx, core.Budget{Category: core.FoodGroceries, MonthlyLimit: dec("1"), Month: jan})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	inJan, err := s.ListBudgets(ctx, jan)
	if err != nil || len(inJan) != 2 {
		t.Fatalf("expected 2 january budgets, got %d (err=%v)", len(inJan), err)
	}
	all, err := s.ListBudgets(ctx, core.Date{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 budgets, got %d (err=%v)", len(all), err)
	}

	upd, err := s.UpdateBudgetLimit(ctx, b1.ID, dec("350.25"))
	if err != nil || !upd.MonthlyLimit.Equal(dec("350.25")) || upd.Category != core.FoodGroceries || !upd.Month.Equal(jan) {
		t.Fatalf("unexpected update %+v (err=%v)", upd, err)
	}
	got, err := s.GetBudget(ctx, b1.ID)
	if err != nil || !got.MonthlyLimit.Equal(dec("350.25")) {
		t.Fatalf("unexpected get %+v (err=%v)", got, err)
	}

	if err := s.DeleteBudget(ctx, b1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetBudget(ctx, b1.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateBudgetLimit(ctx, b1.ID, dec("1")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testGoals(t *testing.T, s store.Store) {
	ctx := context.Background()
	near, err := s.CreateGoal(ctx, core.Goal{Title: "Laptop", TargetAmount: dec("1500"), CurrentAmount: decimal.Zero, TargetDate: core.NewDate(2025, 6, 1)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	far, err := s.CreateGoal(ctx, core.Goal{Title: "House", Description: "deposit", TargetAmount: dec("20000"), CurrentAmount: decimal.Zero, TargetDate: core.NewDate(2030, 1, 1)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	goals, err := s.ListGoals(ctx)
	if err != nil || len(goals) != 2 || goals[0].ID != far.ID || goals[1].ID != near.ID {
		t.Fatalf("expected latest target date first, got %+v (err=%v)", goals, err)
	}

	progressed, err := s.UpdateGoalProgress(ctx, near.ID, decimal.Zero, dec("1500"), true)
	if err != nil || !progressed.CurrentAmount.Equal(dec("1500")) || !progressed.IsCompleted {
		t.Fatalf("unexpected progress update %+v (err=%v)", progressed, err)
	}

	// A write based on an outdated amount must not land.
	if _, err := s.UpdateGoalProgress(ctx, near.ID, decimal.Zero, dec("10"), false); !errors.Is(err, store.ErrStaleProgress) {
		t.Fatalf("expected ErrStaleProgress, got %v", err)
	}
	if got, err := s.GetGoal(ctx, near.ID); err != nil || !got.CurrentAmount.Equal(dec("1500")) || !got.IsCompleted {
		t.Fatalf("stale write changed the goal: %+v (err=%v)", got, err)
	}

	edit := near
	edit.Title = "Gaming laptop"
	edit.TargetAmount = dec("1800")
	edit.CurrentAmount = decimal.Zero
	edit.IsCompleted = false
	updated, err := s.UpdateGoal(ctx, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Gaming laptop" || !updated.TargetAmount.Equal(dec("1800")) {
		t.Fatalf("edit not applied: %+v", updated)
	}
	if !updated.CurrentAmount.Equal(dec("1500")) || !updated.IsCompleted {
		t.Fatalf("edit must not touch progress: %+v", updated)
	}

	if err := s.DeleteGoal(ctx, far.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetGoal(ctx, far.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateGoalProgress(ctx, far.ID, decimal.Zero, dec("1"), false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
