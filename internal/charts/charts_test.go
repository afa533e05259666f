package charts

import (
	"bytes"
	"errors"
	"testing"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

func amount(c core.Category, v string) core.CategoryAmount {
	return core.CategoryAmount{Category: c, Label: c.Label(), Amount: decimal.RequireFromString(v)}
}

func TestPieValues(t *testing.T) {
	tests := []struct {
		name   string
		items  []core.CategoryAmount
		labels []string
	}{
		{"empty", nil, nil},
		{"all zero", []core.CategoryAmount{amount(core.FoodDining, "0")}, nil},
		{
			"small slices merged",
			[]core.CategoryAmount{
				amount(core.HousingRent, "900"),
				amount(core.FoodGroceries, "95"),
				amount(core.BillsPhone, "3"),
				amount(core.EducationBooks, "2"),
			},
			[]string{"Rent: $900.00 (90.0%)", "Groceries: $95.00 (9.5%)", "Other: $5.00 (0.5%)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pieValues(tt.items)
			if len(got) != len(tt.labels) {
				t.Fatalf("got %d values, want %d", len(got), len(tt.labels))
			}
			for i, l := range tt.labels {
				if got[i].Label != l {
					t.Errorf("[%d] label = %q, want %q", i, got[i].Label, l)
				}
			}
		})
	}
}

func TestSpendingPie(t *testing.T) {
	if _, err := SpendingPie(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}

	png, err := SpendingPie([]core.CategoryAmount{
		amount(core.HousingRent, "900"),
		amount(core.FoodGroceries, "250.50"),
	})
	if err != nil {
		t.Fatalf("SpendingPie: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG (%d bytes)", len(png))
	}
}
