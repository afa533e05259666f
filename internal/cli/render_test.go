package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct    string
		width  int
		filled int
	}{
		{pct: "0", width: 10, filled: 0},
		{pct: "50", width: 10, filled: 5},
		{pct: "100", width: 10, filled: 10},
		{pct: "150", width: 10, filled: 10},
		{pct: "-5", width: 10, filled: 0},
		{pct: "33.3", width: 20, filled: 6},
	}

	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			bar := ProgressBar(decimal.RequireFromString(tt.pct), tt.width)
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("filled = %d, want %d", got, tt.filled)
			}
			if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tt.width {
				t.Errorf("width = %d, want %d", got, tt.width)
			}
		})
	}

	if ProgressBar(decimal.NewFromInt(50), 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Budgets",
		Headers: []string{"Category", "Limit"},
		Rows:    [][]string{{"Groceries", "$400.00"}},
	})
	for _, want := range []string{"Budgets", "Category", "Groceries", "$400.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	empty := RenderTable(Table{Title: "Goals", Headers: []string{"Title"}})
	if !strings.Contains(empty, "(none)") {
		t.Errorf("empty table = %q", empty)
	}
}

func TestMoney(t *testing.T) {
	for in, want := range map[string]string{"12.5": "$12.50", "-3": "-$3.00", "0": "$0.00"} {
		if got := Money(decimal.RequireFromString(in)); !strings.Contains(got, want) {
			t.Errorf("Money(%s) = %q, want it to contain %q", in, got, want)
		}
	}
}
