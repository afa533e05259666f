package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/store"
	"budget/internal/store/memory"
)

func TestBuildBudgetLines(t *testing.T) {
	w := core.MonthWindow(fixedNow)
	budgets := []core.Budget{
		{ID: "b1", Category: core.FoodGroceries, MonthlyLimit: dec("200"), Month: w.Start},
		{ID: "b2", Category: core.BillsPhone, MonthlyLimit: dec("0"), Month: w.Start},
	}
	txs := []core.Transaction{
		tx("-50", core.FoodGroceries, core.NewDate(2025, 3, 1), "a"),
		tx("-30.50", core.FoodGroceries, core.NewDate(2025, 3, 31), "b"),
		tx("-99", core.FoodGroceries, core.NewDate(2025, 4, 1), "next month"),
		tx("20", core.FoodGroceries, core.NewDate(2025, 3, 10), "refund"),
		tx("-15", core.BillsPhone, core.NewDate(2025, 3, 4), "phone"),
	}

	lines := BuildBudgetLines(budgets, txs, w)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	tests := []struct {
		name    string
		line    core.BudgetLine
		spent   string
		percent string
		over    bool
	}{
		{"groceries", lines[0], "80.5", "40.25", false},
		{"zero limit", lines[1], "15", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.line.Progress.Spent.Equal(dec(tt.spent)) {
				t.Errorf("spent = %s, want %s", tt.line.Progress.Spent, tt.spent)
			}
			if !tt.line.Progress.Percentage.Equal(dec(tt.percent)) {
				t.Errorf("percentage = %s, want %s", tt.line.Progress.Percentage, tt.percent)
			}
			if tt.line.Progress.IsOverBudget != tt.over {
				t.Errorf("over = %v, want %v", tt.line.Progress.IsOverBudget, tt.over)
			}
		})
	}
}

func TestAvailableCategories(t *testing.T) {
	budgets := []core.Budget{
		{ID: "b1", Category: core.FoodGroceries},
		{ID: "b2", Category: core.HousingRent},
	}
	all := len(core.ExpenseCategories())

	tests := []struct {
		name    string
		editing *core.Budget
		want    int
		has     core.Category
		hasNot  core.Category
	}{
		{"new budget", nil, all - 2, core.FoodDining, core.FoodGroceries},
		{"editing keeps own category", &budgets[0], all - 1, core.FoodGroceries, core.HousingRent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableCategories(budgets, tt.editing)
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			found := map[core.Category]bool{}
			for _, c := range got {
				found[c] = true
				if c.IsIncome() {
					t.Errorf("income category %s offered", c)
				}
			}
			if !found[tt.has] {
				t.Errorf("missing %s", tt.has)
			}
			if found[tt.hasNot] {
				t.Errorf("unexpected %s", tt.hasNot)
			}
		})
	}
}

func TestBudgetServiceCreate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	pub := &recordingPublisher{}
	svc := NewBudgetService(s, NewNotifier(pub, nil), nil).WithClock(clock)

	created, err := svc.Create(ctx, core.Budget{Category: core.FoodDining, MonthlyLimit: dec("150"), Month: core.NewDate(2025, 3, 17)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.Month.Equal(core.NewDate(2025, 3, 1)) {
		t.Errorf("month = %s, want 2025-03-01", created.Month)
	}

	defaulted, err := svc.Create(ctx, core.Budget{Category: core.BillsPhone, MonthlyLimit: dec("40")})
	if err != nil {
		t.Fatalf("Create without month: %v", err)
	}
	if defaulted.Month.MonthKey() != "2025-03" {
		t.Errorf("default month = %s", defaulted.Month)
	}

	tests := []struct {
		name    string
		budget  core.Budget
		wantErr error
	}{
		{"duplicate category and month", core.Budget{Category: core.FoodDining, MonthlyLimit: dec("10"), Month: core.NewDate(2025, 3, 2)}, core.ErrConflict},
		{"income category", core.Budget{Category: core.IncomeSalary, MonthlyLimit: dec("10"), Month: core.NewDate(2025, 3, 1)}, core.ErrInvalidArgument},
		{"negative limit", core.Budget{Category: core.FoodGroceries, MonthlyLimit: dec("-1"), Month: core.NewDate(2025, 3, 1)}, core.ErrInvalidArgument},
		{"unknown category", core.Budget{Category: "fun", MonthlyLimit: dec("1"), Month: core.NewDate(2025, 3, 1)}, core.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.budget); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := svc.Create(ctx, core.Budget{Category: core.FoodDining, MonthlyLimit: dec("10"), Month: core.NewDate(2025, 4, 1)}); err != nil {
		t.Errorf("same category in another month: %v", err)
	}

	types := pub.types()
	if len(types) != 3 {
		t.Fatalf("events = %v, want 3 creations", types)
	}
	for _, typ := range types {
		if typ != amqp.BudgetCreated {
			t.Errorf("event type = %s", typ)
		}
	}
}

func TestBudgetServiceMonth(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	c := cache.NewLRUCache[core.BudgetMonth](4, time.Minute)
	n := NewNotifier(nil, nil)
	svc := NewBudgetService(s, n, nil).WithClock(clock)
	agg := NewBudgetAggregator(s, s).WithClock(clock).WithCache(c)
	n.Subscribe(agg.Invalidate)

	if _, err := svc.Create(ctx, core.Budget{Category: core.FoodGroceries, MonthlyLimit: dec("300")}); err != nil {
		t.Fatal(err)
	}
	seedTransactions(t, s,
		tx("-120", core.FoodGroceries, core.NewDate(2025, 3, 3), "market"),
		tx("-80", core.Other, core.NewDate(2025, 3, 4), "misc"),
		tx("2000", core.IncomeSalary, core.NewDate(2025, 3, 1), "salary"),
	)

	m, err := agg.Month(ctx, core.Date{})
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	if m.Month != "2025-03" || len(m.Lines) != 1 {
		t.Fatalf("month = %+v", m)
	}
	if !m.Totals.TotalBudgeted.Equal(dec("300")) || !m.Totals.TotalSpent.Equal(dec("200")) || !m.Totals.Remaining.Equal(dec("100")) {
		t.Errorf("totals = %+v, want 300/200/100", m.Totals)
	}
	if c.Size() != 1 {
		t.Errorf("cache size = %d, want 1", c.Size())
	}

	updated, err := svc.UpdateLimit(ctx, m.Lines[0].Budget.ID, dec("100"))
	if err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	if updated.Category != core.FoodGroceries {
		t.Errorf("category changed to %s", updated.Category)
	}
	m, err = agg.Month(ctx, core.NewDate(2025, 3, 20))
	if err != nil {
		t.Fatal(err)
	}
	if !m.Lines[0].Progress.IsOverBudget {
		t.Errorf("expected over budget after lowering the limit")
	}

	empty, err := agg.Month(ctx, core.NewDate(2024, 12, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Lines) != 0 || !empty.Totals.TotalBudgeted.IsZero() {
		t.Errorf("empty month = %+v", empty)
	}
}

func TestBudgetServiceUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := NewBudgetService(s, nil, nil).WithClock(clock)

	b, err := svc.Create(ctx, core.Budget{Category: core.BillsInternet, MonthlyLimit: dec("60")})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateLimit(ctx, b.ID, dec("-5")); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("negative limit err = %v", err)
	}
	if _, err := svc.UpdateLimit(ctx, "missing", dec("5")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing budget err = %v", err)
	}
	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}

	free, err := NewBudgetAggregator(s, s).WithClock(clock).AvailableCategories(ctx, core.Date{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(free) != len(core.ExpenseCategories()) {
		t.Errorf("available = %d after delete", len(free))
	}
}
