// Package charts renders spending breakdowns as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"budget/internal/core"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("charts: no data")

// Slices under this share of the total are merged into one "Other" slice.
var minShare = decimal.NewFromInt(1)

const (
	pieWidth  = 800
	pieHeight = 800
)

// SpendingPie renders expenses by category as a pie chart.
func SpendingPie(items []core.CategoryAmount) ([]byte, error) {
	values := pieValues(items)
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:  "Spending by category",
		Width:  pieWidth,
		Height: pieHeight,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render spending chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func pieValues(items []core.CategoryAmount) []chart.Value {
	total := decimal.Zero
	for _, it := range items {
		if it.Amount.IsPositive() {
			total = total.Add(it.Amount)
		}
	}
	if !total.IsPositive() {
		return nil
	}

	values := make([]chart.Value, 0, len(items))
	rest := decimal.Zero
	for _, it := range items {
		if !it.Amount.IsPositive() {
			continue
		}
		share := it.Amount.Mul(decimal.NewFromInt(100)).Div(total)
		if share.LessThan(minShare) {
			rest = rest.Add(it.Amount)
			continue
		}
		values = append(values, sliceValue(it.Label, it.Amount, share))
	}
	if rest.IsPositive() {
		share := rest.Mul(decimal.NewFromInt(100)).Div(total)
		values = append(values, sliceValue("Other", rest, share))
	}
	return values
}

func sliceValue(label string, amount, share decimal.Decimal) chart.Value {
	return chart.Value{
		Label: fmt.Sprintf("%s: %s (%s%%)", label, core.FormatMoney(amount), share.StringFixed(1)),
		Value: amount.InexactFloat64(),
		Style: chart.Style{
			FontSize:  12,
			FontColor: chart.ColorBlack,
		},
	}
}
