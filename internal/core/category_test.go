package core

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" food_dining ")
	if err != nil || c != FoodDining {
		t.Fatalf("unexpected %q err=%v", c, err)
	}
	if _, err := ParseCategory("Dining Out"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCategoryOrOther(t *testing.T) {
	if got := CategoryOrOther("bills_phone"); got != BillsPhone {
		t.Fatalf("got %q", got)
	}
	if got := CategoryOrOther("legacy_value"); got != Other {
		t.Fatalf("got %q", got)
	}
}

func TestCategorySets(t *testing.T) {
	if n := len(ExpenseCategories()); n != 22 {
		t.Fatalf("expected 22 expense categories, got %d", n)
	}
	for _, c := range ExpenseCategories() {
		if !c.IsExpense() || c.IsIncome() {
			t.Errorf("%s should be an expense category", c)
		}
		if c.Label() == string(c) {
			t.Errorf("%s has no label", c)
		}
	}
	for _, c := range IncomeCategories() {
		if !c.IsIncome() || c.IsExpense() {
			t.Errorf("%s should be an income category", c)
		}
	}
	if Category("x").Label() != "x" {
		t.Errorf("unknown category label should echo the value")
	}
}
