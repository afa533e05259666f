package http

import (
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

type categoriesResponse struct {
	Expense []categoryOption `json:"expense"`
	Income  []categoryOption `json:"income"`
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, categoriesResponse{
		Expense: categoryOptions(core.ExpenseCategories()),
		Income:  categoryOptions(core.IncomeCategories()),
	})
}

type assistantResponse struct {
	Reply string `json:"reply"`
}

// handleAssistant answers a budgeting question for premium sessions. When
// no model is configured the fallback reply is returned with a 503, and with
// a 502 when the model cannot be reached.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpAsk, err)
		return
	}
	if s.deps.Assistant == nil {
		writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: services.ErrAssistantUnavailable.Error(), Message: services.FallbackReply})
		return
	}

	reply, err := s.deps.Assistant.Ask(r.Context(), sessionOf(r), req.Question)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, assistantResponse{Reply: reply})
	case errors.Is(err, services.ErrAssistantUnavailable):
		writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Message: services.FallbackReply})
	case statusFor(err) != http.StatusInternalServerError:
		writeError(w, r, log.OpAsk, err)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Assistant unavailable",
			log.FieldOperation, log.OpAsk, log.FieldError, err)
		writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: "assistant unavailable", Message: services.FallbackReply})
	}
}
