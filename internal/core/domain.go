package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Transaction is a single ledger entry. Positive amounts are income,
	// negative amounts are expenses.
	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Category    Category        `json:"category"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		IsRecurring bool            `json:"is_recurring"`
	}

	// Budget is a spending limit for one expense category in one month.
	Budget struct {
		ID           string          `json:"id"`
		Category     Category        `json:"category"`
		MonthlyLimit decimal.Decimal `json:"monthly_limit"`
		Month        Date            `json:"month"`
	}

	// Goal is a savings target. CurrentAmount and IsCompleted only move
	// through ApplyContribution.
	Goal struct {
		ID            string          `json:"id"`
		Title         string          `json:"title"`
		Description   string          `json:"description"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		TargetDate    Date            `json:"target_date"`
		IsCompleted   bool            `json:"is_completed"`
	}
)

const maxDescriptionLen = 200

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDomain          = errors.New("domain violation")
	ErrConflict        = errors.New("conflict")

	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrInvalidArgument)
	ErrEmptyDate        = fmt.Errorf("%w: date cannot be empty", ErrInvalidArgument)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrInvalidArgument)
	ErrEmptyTitle       = fmt.Errorf("%w: empty title", ErrInvalidArgument)
)

// IsIncome reports whether the transaction adds money.
func (t Transaction) IsIncome() bool { return t.Amount.IsPositive() }

// IsExpense reports whether the transaction removes money.
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrInvalidArgument, maxDescriptionLen)
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("%w: amount cannot be zero", ErrInvalidArgument)
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if !b.Category.IsExpense() {
		return fmt.Errorf("%w: budget category %q must be an expense category", ErrInvalidArgument, b.Category)
	}
	if b.MonthlyLimit.IsNegative() {
		return fmt.Errorf("%w: monthly limit cannot be negative", ErrInvalidArgument)
	}
	if !b.Month.IsMonthStart() {
		return fmt.Errorf("%w: budget month must be the first day of a month", ErrInvalidArgument)
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(g.Description) > maxDescriptionLen*5 {
		return fmt.Errorf("%w: description too long", ErrInvalidArgument)
	}
	if !g.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: target amount must be positive", ErrInvalidArgument)
	}
	if g.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: current amount cannot be negative", ErrInvalidArgument)
	}
	return nil
}
