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

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "This month's cash flow, budgets and recent transactions",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	return renderOverview(cmd.Context(), os.Stdout, app.svc.Dashboard)
}

func renderOverview(ctx context.Context, w io.Writer, dash *services.DashboardAggregator) error {
	ov, err := dash.Overview(ctx)
	if err != nil {
		return err
	}
	s := ov.Summary

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("BUDGET  "+s.Month))
	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTable(cli.Table{
		Headers: []string{"", "Amount"},
		Rows: [][]string{
			{"Income", cli.Money(s.Income)},
			{"Expenses", core.FormatMoney(s.Expenses)},
			{"Balance", cli.Money(s.Balance)},
			{"vs last month", core.FormatPercent(s.ExpenseChangePercent)},
		},
	}))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(ov.SpendingByCategory))
	for _, c := range ov.SpendingByCategory {
		rows = append(rows, []string{c.Label, core.FormatMoney(c.Amount)})
	}
	fmt.Fprintln(w, cli.RenderTable(cli.Table{Title: "Spending by category", Headers: []string{"Category", "Spent"}, Rows: rows}))
	fmt.Fprintln(w)

	fmt.Fprintln(w, budgetTable(ov.Budgets))
	fmt.Fprintln(w)

	rows = rows[:0]
	for _, t := range ov.RecentTransactions {
		rows = append(rows, []string{t.Date.String(), t.Category.Label(), t.Description, cli.Money(t.Amount)})
	}
	fmt.Fprintln(w, cli.RenderTable(cli.Table{Title: "Recent transactions", Headers: []string{"Date", "Category", "Description", "Amount"}, Rows: rows}))
	return nil
}
