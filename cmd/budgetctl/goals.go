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

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Savings goals and their progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return renderGoals(cmd.Context(), os.Stdout, app.svc.Goals)
	},
}

var contributeCmd = &cobra.Command{
	Use:   "contribute <goal-id> <amount>",
	Short: "Add money to a savings goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return contribute(cmd.Context(), os.Stdout, app.svc.Goals, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(contributeCmd)
}

func renderGoals(ctx context.Context, w io.Writer, goals *services.GoalTracker) error {
	groups, err := goals.Groups(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("SAVINGS GOALS"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Active %d   Completed %d   Saved %s\n\n",
		groups.Summary.Active, groups.Summary.Completed, core.FormatMoney(groups.Summary.TotalSaved))
	fmt.Fprintln(w, goalTable("Active", groups.Active))
	fmt.Fprintln(w)
	fmt.Fprintln(w, goalTable("Completed", groups.Completed))
	return nil
}

func goalTable(title string, views []core.GoalView) string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.ID,
			v.Title,
			core.FormatMoney(v.CurrentAmount) + " / " + core.FormatMoney(v.TargetAmount),
			cli.ProgressBar(v.Progress, 20) + " " + v.Progress.StringFixed(0) + "%",
			v.TargetDate.String(),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"ID", "Goal", "Saved", "Progress", "Target date"},
		Rows:    rows,
	})
}

func contribute(ctx context.Context, w io.Writer, goals *services.GoalTracker, id, rawAmount string) error {
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", rawAmount, err)
	}
	g, err := goals.Contribute(ctx, id, amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "  Added %s to %q: %s of %s saved\n",
		core.FormatMoney(amount), g.Title, core.FormatMoney(g.CurrentAmount), core.FormatMoney(g.TargetAmount))
	if g.IsCompleted {
		fmt.Fprintln(w, "  Goal reached!")
	}
	return nil
}
