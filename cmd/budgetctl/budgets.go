package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var flagMonth string

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Budget progress for a month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var month core.Date
		if flagMonth != "" {
			m, err := core.ParseMonth(flagMonth)
			if err != nil {
				return err
			}
			month = m
		}
		return renderBudgets(cmd.Context(), os.Stdout, app.svc.BudgetView, month)
	},
}

func init() {
	budgetsCmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (default: current)")
	rootCmd.AddCommand(budgetsCmd)
}

func renderBudgets(ctx context.Context, w io.Writer, view *services.BudgetAggregator, month core.Date) error {
	m, err := view.Month(ctx, month)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("BUDGETS  "+m.Month))
	fmt.Fprintln(w)
	fmt.Fprintln(w, budgetTable(m.Lines))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Budgeted %s   Spent %s   Remaining %s\n",
		core.FormatMoney(m.Totals.TotalBudgeted),
		core.FormatMoney(m.Totals.TotalSpent),
		cli.Money(m.Totals.Remaining))
	return nil
}

func budgetTable(lines []core.BudgetLine) string {
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		status := "ok"
		if l.Progress.IsOverBudget {
			status = "over by " + core.FormatMoney(l.Progress.OverBy())
		}
		rows = append(rows, []string{
			l.Label,
			core.FormatMoney(l.Progress.Spent),
			core.FormatMoney(l.Progress.Limit),
			cli.ProgressBar(l.Progress.Percentage, 20) + " " + l.Progress.RawPercentage.StringFixed(0) + "%",
			status,
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   "Budgets",
		Headers: []string{"Category", "Spent", "Limit", "Progress", "Status"},
		Rows:    rows,
	})
}
