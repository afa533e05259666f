package core

import "github.com/shopspring/decimal"

// DashboardSummary is the current month's cash flow compared with the previous month.
type DashboardSummary struct {
	Month                string          `json:"month"`
	Income               decimal.Decimal `json:"income"`
	Expenses             decimal.Decimal `json:"expenses"`
	Balance              decimal.Decimal `json:"balance"`
	ExpenseChangePercent decimal.Decimal `json:"expense_change_percent"`
}

// BudgetLine pairs a budget with its computed progress.
type BudgetLine struct {
	Budget   Budget         `json:"budget"`
	Label    string         `json:"label"`
	Progress BudgetProgress `json:"progress"`
}

// BudgetMonth is the budget page for one month.
type BudgetMonth struct {
	Month  string       `json:"month"`
	Lines  []BudgetLine `json:"lines"`
	Totals Totals       `json:"totals"`
}

// GoalView is a goal with its progress percentage.
type GoalView struct {
	Goal
	Progress decimal.Decimal `json:"progress"`
}

// GoalsSummary is the header above the goals list.
type GoalsSummary struct {
	Active     int             `json:"active"`
	Completed  int             `json:"completed"`
	TotalSaved decimal.Decimal `json:"total_saved"`
}

// DashboardOverview is everything the dashboard shows in one response.
type DashboardOverview struct {
	Summary            DashboardSummary `json:"summary"`
	Budgets            []BudgetLine     `json:"budgets"`
	ActiveGoals        []GoalView       `json:"active_goals"`
	RecentTransactions []Transaction    `json:"recent_transactions"`
	SpendingByCategory []CategoryAmount `json:"spending_by_category"`
}
