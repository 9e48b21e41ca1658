package http

import (
	"log/slog"
	"net/http"

	"proyeksi/internal/core"
)

type taskRequest struct {
	ProjectID   *string `json:"projectId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assignedTo"`
	Completed   *bool   `json:"completed"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), r.URL.Query().Get("projectId"))
	if err != nil {
		slog.ErrorContext(r.Context(), "List tasks failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if tasks == nil {
		tasks = []core.Task{}
	}
	writeData(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t := core.Task{
		ID:        core.NewID("task"),
		CreatedAt: nowMillis(),
	}
	applyTaskRequest(&t, req)

	if err := s.store.CreateTask(r.Context(), t); err != nil {
		slog.ErrorContext(r.Context(), "Create task failed", "error", err, "project_id", t.ProjectID)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	// A task never moves between projects.
	req.ProjectID = nil
	applyTaskRequest(&t, req)

	if err := s.store.UpdateTask(r.Context(), t); err != nil {
		slog.ErrorContext(r.Context(), "Update task failed", "error", err, "id", t.ID)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func applyTaskRequest(t *core.Task, req taskRequest) {
	if req.ProjectID != nil {
		t.ProjectID = *req.ProjectID
	}
	if req.Title != nil {
		t.Title = sanitizeInput(*req.Title)
	}
	if req.Description != nil {
		t.Description = sanitizeInput(*req.Description)
	}
	if req.AssignedTo != nil {
		t.AssigneeID = *req.AssignedTo
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
}
