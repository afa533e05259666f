package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseTransactionQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), q)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, transactionList{Transactions: txs, Count: len(txs)})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := req.transaction("")
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.deps.Transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+created.ID)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	t, err := req.transaction(r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.deps.Transactions.Update(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
