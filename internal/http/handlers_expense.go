package http

import (
	"log/slog"
	"net/http"

	"proyeksi/internal/core"
)

type expenseRequest struct {
	ProjectID   *string `json:"projectId"`
	Description *string `json:"description"`
	Amount      *int64  `json:"amount"`
	Category    *string `json:"category"`
	Date        *int64  `json:"date"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListExpenses(r.Context(), r.URL.Query().Get("projectId"))
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeData(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	e := core.Expense{
		ID:        core.NewID("expense"),
		Category:  core.CategoryOther,
		Date:      nowMillis(),
		CreatedAt: nowMillis(),
	}
	applyExpenseRequest(&e, req)

	if err := s.store.CreateExpense(r.Context(), e); err != nil {
		slog.ErrorContext(r.Context(), "Create expense failed", "error", err, "project_id", e.ProjectID, "amount", e.Amount)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	e, err := s.store.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	// An expense never moves between projects.
	req.ProjectID = nil
	applyExpenseRequest(&e, req)

	if err := s.store.UpdateExpense(r.Context(), e); err != nil {
		slog.ErrorContext(r.Context(), "Update expense failed", "error", err, "id", e.ID)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func applyExpenseRequest(e *core.Expense, req expenseRequest) {
	if req.ProjectID != nil {
		e.ProjectID = *req.ProjectID
	}
	if req.Description != nil {
		e.Description = sanitizeInput(*req.Description)
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Category != nil {
		e.Category = core.ExpenseCategory(*req.Category)
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
}
