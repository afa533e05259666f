package core

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// BudgetProgress is the derived state of one budget against its spend.
type BudgetProgress struct {
	Limit decimal.Decimal `json:"limit"`
	Spent decimal.Decimal `json:"spent"`
	// Percentage is clamped to [0, 100] for display.
	Percentage decimal.Decimal `json:"percentage"`
	// RawPercentage is the unclamped ratio.
	RawPercentage decimal.Decimal `json:"raw_percentage"`
	IsOverBudget  bool            `json:"is_over_budget"`
	// Remaining may be negative.
	Remaining decimal.Decimal `json:"remaining"`
}

// OverBy returns how far spending exceeds the limit, or zero when the budget
// is not over.
func (p BudgetProgress) OverBy() decimal.Decimal {
	if !p.IsOverBudget {
		return decimal.Zero
	}
	return p.Spent.Sub(p.Limit)
}

// Totals are the month rollups shown above the budget list.
type Totals struct {
	TotalBudgeted decimal.Decimal `json:"total_budgeted"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	Remaining     decimal.Decimal `json:"remaining"`
}

// CategoryAmount is one slice of the spending breakdown.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategorySpend sums the absolute value of expenses in category within w.
func CategorySpend(txs []Transaction, category Category, w Window) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Category != category || !t.IsExpense() || !w.Contains(t.Date) {
			continue
		}
		total = total.Add(t.Amount.Abs())
	}
	return total
}

// ComputeBudgetProgress derives the progress figures for a budget. A
// non-positive limit yields 0% and is over budget as soon as anything is spent.
func ComputeBudgetProgress(b Budget, spend decimal.Decimal) BudgetProgress {
	p := BudgetProgress{
		Limit:         b.MonthlyLimit,
		Spent:         spend,
		Percentage:    decimal.Zero,
		RawPercentage: decimal.Zero,
		Remaining:     b.MonthlyLimit.Sub(spend),
	}
	if !b.MonthlyLimit.IsPositive() {
		p.IsOverBudget = spend.IsPositive()
		return p
	}
	p.RawPercentage = spend.Mul(hundred).Div(b.MonthlyLimit)
	p.Percentage = decimal.Min(p.RawPercentage, hundred)
	p.IsOverBudget = spend.GreaterThan(b.MonthlyLimit)
	return p
}

// GoalProgress returns current/target as an unclamped percentage.
func GoalProgress(g Goal) (decimal.Decimal, error) {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: goal %q has non-positive target %s", ErrDomain, g.ID, g.TargetAmount)
	}
	return g.CurrentAmount.Mul(hundred).Div(g.TargetAmount), nil
}

// ApplyContribution returns a copy of g with amount added and the completion
// flag recomputed. g is not modified.
func ApplyContribution(g Goal, amount decimal.Decimal) (Goal, error) {
	if !amount.IsPositive() {
		return g, fmt.Errorf("%w: contribution must be positive, got %s", ErrInvalidArgument, amount)
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.IsCompleted = g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
	return g, nil
}

// SummarizeTotals sums budget limits against all expenses in txs. Spending is
// not restricted to budgeted categories.
func SummarizeTotals(budgets []Budget, txs []Transaction) Totals {
	budgeted := decimal.Zero
	for _, b := range budgets {
		budgeted = budgeted.Add(b.MonthlyLimit)
	}
	spent := Expenses(txs)
	return Totals{
		TotalBudgeted: budgeted,
		TotalSpent:    spent,
		Remaining:     budgeted.Sub(spent),
	}
}

// MonthOverMonthChange returns the percent change from prev to cur, or zero
// when prev is not positive.
func MonthOverMonthChange(cur, prev decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return cur.Sub(prev).Mul(hundred).Div(prev)
}

// Income sums positive amounts.
func Income(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.IsIncome() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Expenses sums the absolute value of negative amounts.
func Expenses(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.IsExpense() {
			total = total.Add(t.Amount.Abs())
		}
	}
	return total
}

// FilterWindow returns the transactions dated within w, preserving order.
func FilterWindow(txs []Transaction, w Window) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if w.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// SpendingByCategory groups expenses by category, largest first.
func SpendingByCategory(txs []Transaction) []CategoryAmount {
	totals := make(map[Category]decimal.Decimal)
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount.Abs())
	}
	out := make([]CategoryAmount, 0, len(totals))
	for c, amt := range totals {
		out = append(out, CategoryAmount{Category: c, Label: c.Label(), Amount: amt})
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// SplitGoals separates goals into active and completed, preserving order.
func SplitGoals(goals []Goal) (active, completed []Goal) {
	active = []Goal{}
	completed = []Goal{}
	for _, g := range goals {
		if g.IsCompleted {
			completed = append(completed, g)
		} else {
			active = append(active, g)
		}
	}
	return active, completed
}

// TotalSaved sums current amounts across all goals.
func TotalSaved(goals []Goal) decimal.Decimal {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(g.CurrentAmount)
	}
	return total
}
