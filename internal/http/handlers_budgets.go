package http

import (
	"fmt"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

type categoryOption struct {
	Value core.Category `json:"value"`
	Label string        `json:"label"`
}

func categoryOptions(cats []core.Category) []categoryOption {
	out := make([]categoryOption, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryOption{Value: c, Label: c.Label()})
	}
	return out
}

// handleBudgetMonth serves the budget lines and totals of ?month=YYYY-MM,
// defaulting to the current month.
func (s *Server) handleBudgetMonth(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthValue(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return
	}
	view, err := s.deps.BudgetView.Month(r.Context(), month)
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleAvailableCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := parseMonthValue(q.Get("month"))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	cats, err := s.deps.BudgetView.AvailableCategories(r.Context(), month, sanitizeInput(q.Get("editing")))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"categories": categoryOptions(cats)})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	b, err := req.budget()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.deps.Budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/budgets/"+created.ID)
	writeJSON(w, r, http.StatusCreated, created)
}

// handleUpdateBudget changes the monthly limit. Category and month of a
// budget are fixed once created.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetLimitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	if req.MonthlyLimit == nil {
		writeError(w, r, log.OpUpdate, fmt.Errorf("%w: monthly_limit is required", core.ErrInvalidArgument))
		return
	}
	updated, err := s.deps.Budgets.UpdateLimit(r.Context(), r.PathValue("id"), *req.MonthlyLimit)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Budgets.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
