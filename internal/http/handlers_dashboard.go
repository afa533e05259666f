package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"budget/internal/charts"
	"budget/internal/log"
)

const dashboardTimeout = 7 * time.Second

// handleDashboardSummary returns this month's income, expenses, balance and
// the expense change against last month.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	summary, err := s.deps.Dashboard.Summary(ctx)
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// handleDashboardOverview returns every dashboard panel in one response.
func (s *Server) handleDashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	overview, err := s.deps.Dashboard.Overview(ctx)
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return
	}
	writeJSON(w, r, http.StatusOK, overview)
}

// handleSpendingChart renders this month's spending by category as a PNG
// pie chart. A month without expenses answers 204.
func (s *Server) handleSpendingChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	items, err := s.deps.Dashboard.SpendingByCategory(ctx)
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return
	}

	png, err := charts.SpendingPie(items)
	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
