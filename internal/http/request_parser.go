package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
	"budget/internal/services"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 64 << 10

// decodeJSON reads exactly one JSON object from the request body into dst.
// Every failure is reported as core.ErrInvalidArgument.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", core.ErrInvalidArgument)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrInvalidArgument, maxErr.Limit)
		case errors.Is(err, core.ErrInvalidArgument):
			return err
		default:
			return fmt.Errorf("%w: malformed JSON: %v", core.ErrInvalidArgument, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", core.ErrInvalidArgument)
	}
	return nil
}

// parseMonthValue accepts YYYY-MM or a full YYYY-MM-DD date and returns the
// first day of that month. An empty value yields the zero date.
func parseMonthValue(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	if m, err := core.ParseMonth(s); err == nil {
		return m, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: month %q: expected YYYY-MM", core.ErrInvalidArgument, s)
	}
	return d.MonthStart(), nil
}

// parseTransactionQuery reads the list filters of GET /api/transactions.
func parseTransactionQuery(q url.Values) (services.TransactionQuery, error) {
	out := services.TransactionQuery{
		Term: sanitizeInput(q.Get("q")),
		Type: strings.ToLower(strings.TrimSpace(q.Get("type"))),
	}

	if v := strings.TrimSpace(q.Get("category")); v != "" && v != "all" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return out, err
		}
		out.Category = c
	}

	var err error
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		if out.From, err = core.ParseDate(v); err != nil {
			return out, err
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		if out.To, err = core.ParseDate(v); err != nil {
			return out, err
		}
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.To.Before(out.From) {
		return out, fmt.Errorf("%w: to must not be before from", core.ErrInvalidArgument)
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return out, fmt.Errorf("%w: limit %q must be a non-negative integer", core.ErrInvalidArgument, v)
		}
		out.Limit = n
	}
	return out, nil
}

// transactionRequest is the body of POST and PUT /api/transactions. With
// Type set, Amount is a magnitude and the sign comes from Type; without it
// Amount is signed (positive income, negative expense).
type transactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type,omitempty"`
	Category    string          `json:"category"`
	Date        core.Date       `json:"date"`
	Description string          `json:"description"`
	IsRecurring bool            `json:"is_recurring"`
}

func (req transactionRequest) transaction(id string) (core.Transaction, error) {
	c, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Transaction{}, err
	}

	amount := req.Amount
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case "":
	case services.TypeIncome:
		if !amount.IsPositive() {
			return core.Transaction{}, core.ErrInvalidAmount
		}
	case services.TypeExpense:
		if !amount.IsPositive() {
			return core.Transaction{}, core.ErrInvalidAmount
		}
		amount = amount.Neg()
	default:
		return core.Transaction{}, fmt.Errorf("%w: unknown transaction type %q", core.ErrInvalidArgument, req.Type)
	}

	return core.Transaction{
		ID:          id,
		Amount:      amount,
		Category:    c,
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
		IsRecurring: req.IsRecurring,
	}, nil
}

// budgetRequest is the body of POST /api/budgets.
type budgetRequest struct {
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	Month        string          `json:"month,omitempty"`
}

func (req budgetRequest) budget() (core.Budget, error) {
	c, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Budget{}, err
	}
	month, err := parseMonthValue(req.Month)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{Category: c, MonthlyLimit: req.MonthlyLimit, Month: month}, nil
}

// budgetLimitRequest is the body of PUT /api/budgets/{id}.
type budgetLimitRequest struct {
	MonthlyLimit *decimal.Decimal `json:"monthly_limit"`
}

// goalRequest is the body of POST and PUT /api/goals.
type goalRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	TargetDate   core.Date       `json:"target_date"`
}

func (req goalRequest) goal(id string) core.Goal {
	return core.Goal{
		ID:           id,
		Title:        sanitizeInput(req.Title),
		Description:  sanitizeInput(req.Description),
		TargetAmount: req.TargetAmount,
		TargetDate:   req.TargetDate,
	}
}

// contributionRequest is the body of POST /api/goals/{id}/contributions.
type contributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// assistantRequest is the body of POST /api/assistant.
type assistantRequest struct {
	Question string `json:"question"`
}
