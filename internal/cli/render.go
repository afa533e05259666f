package cli

import (
	"strings"

	"budget/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorRed    = lipgloss.Color("#D14D41")
	ColorMuted  = lipgloss.Color("#6F6E69")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	gainStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	lossStyle   = lipgloss.NewStyle().Foreground(ColorRed)
)

// Table is a titled grid of pre-formatted cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a heading in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with a rounded border. An empty table renders a
// muted placeholder.
func RenderTable(t Table) string {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString(titleStyle.Render(t.Title))
		b.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		b.WriteString(mutedStyle.Render("  (none)"))
		return b.String()
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	b.WriteString(tbl.Render())
	return b.String()
}

// Money colors an amount green when positive and red when negative.
func Money(d decimal.Decimal) string {
	s := core.FormatMoney(d)
	switch {
	case d.IsPositive():
		return gainStyle.Render(s)
	case d.IsNegative():
		return lossStyle.Render(s)
	}
	return s
}

// ProgressBar draws pct (0-100) as a bar of width cells.
func ProgressBar(pct decimal.Decimal, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(pct.Mul(decimal.NewFromInt(int64(width))).Div(decimal.NewFromInt(100)).IntPart())
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
