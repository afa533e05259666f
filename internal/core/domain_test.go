package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2025, 1, 1),
		Description: "groceries",
		Amount:      dec("-42.10"),
		Category:    FoodGroceries,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{}, Description: "a", Amount: dec("-1"), Category: Other},
		{Date: NewDate(2025, 1, 1), Description: " ", Amount: dec("-1"), Category: Other},
		{Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 201), Amount: dec("-1"), Category: Other},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: dec("0"), Category: Other},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: dec("-1"), Category: "groceries"},
	}
	for i, tr := range bads {
		err := tr.Validate()
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d expected ErrInvalidArgument, got %v", i, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Category: FoodDining, MonthlyLimit: dec("0"), Month: NewDate(2025, 3, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Budget{
		{Category: IncomeSalary, MonthlyLimit: dec("10"), Month: NewDate(2025, 3, 1)},
		{Category: "nope", MonthlyLimit: dec("10"), Month: NewDate(2025, 3, 1)},
		{Category: FoodDining, MonthlyLimit: dec("-1"), Month: NewDate(2025, 3, 1)},
		{Category: FoodDining, MonthlyLimit: dec("10"), Month: NewDate(2025, 3, 2)},
		{Category: FoodDining, MonthlyLimit: dec("10")},
	}
	for i, b := range bads {
		if err := b.Validate(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d expected ErrInvalidArgument, got %v", i, err)
		}
	}
}

func TestGoalValidate(t *testing.T) {
	good := Goal{Title: "Emergency fund", TargetAmount: dec("1000"), CurrentAmount: dec("0")}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Goal{
		{Title: "", TargetAmount: dec("1")},
		{Title: "x", TargetAmount: dec("0")},
		{Title: "x", TargetAmount: dec("-3")},
		{Title: "x", TargetAmount: dec("10"), CurrentAmount: dec("-1")},
	}
	for i, g := range bads {
		if err := g.Validate(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d expected ErrInvalidArgument, got %v", i, err)
		}
	}
}

func TestTransactionJSON(t *testing.T) {
	in := Transaction{ID: "t1", Amount: dec("-12.5"), Category: FoodDining, Date: NewDate(2025, 2, 14), Description: "pizza"}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"date":"2025-02-14"`) {
		t.Fatalf("unexpected json %s", b)
	}
	var out Transaction
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Date.Equal(in.Date) || !out.Amount.Equal(in.Amount) || out.Category != in.Category {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
