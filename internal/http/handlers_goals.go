package http

import (
	"net/http"

	"budget/internal/log"
)

// handleListGoals serves the goals page: summary header plus active and
// completed groups.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Goals.Groups(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, groups)
}

func (s *Server) handleGoalsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Goals.Summary(r.Context())
	if err != nil {
		writeError(w, r, log.OpSummarize, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Goals.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, g)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.deps.Goals.Create(r.Context(), req.goal(""))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/goals/"+created.ID)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.deps.Goals.Update(r.Context(), req.goal(r.PathValue("id")))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpContribute, err)
		return
	}
	g, err := s.deps.Goals.Contribute(r.Context(), r.PathValue("id"), req.Amount)
	if err != nil {
		writeError(w, r, log.OpContribute, err)
		return
	}
	writeJSON(w, r, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Goals.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
