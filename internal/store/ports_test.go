package store

import (
	"errors"
	"testing"

	"budget/internal/core"
)

func TestWrap(t *testing.T) {
	if Wrap("get", "goal", nil) != nil {
		t.Fatalf("expected nil")
	}
	err := Wrap("get", "goal", ErrNotFound)
	var se *StoreError
	if !errors.As(err, &se) || se.Op != "get" || se.Entity != "goal" {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound to be preserved")
	}
	if again := Wrap("list", "goal", err); again != err {
		t.Fatalf("expected existing StoreError to pass through")
	}
}

func TestTransactionFilterMatches(t *testing.T) {
	tr := core.Transaction{Category: core.FoodDining, Date: core.NewDate(2025, 3, 10)}
	cases := []struct {
		name string
		f    TransactionFilter
		want bool
	}{
		{"empty", TransactionFilter{}, true},
		{"inside window", TransactionFilter{}.Window(core.MonthWindow(tr.Date.Time)), true},
		{"before from", TransactionFilter{From: core.NewDate(2025, 3, 11)}, false},
		{"after to", TransactionFilter{To: core.NewDate(2025, 3, 9)}, false},
		{"category match", TransactionFilter{Category: core.FoodDining}, true},
		{"category mismatch", TransactionFilter{Category: core.HousingRent}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(tr); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
