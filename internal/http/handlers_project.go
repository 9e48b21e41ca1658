package http

import (
	"log/slog"
	"net/http"

	"proyeksi/internal/core"
)

type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Budget      *int64  `json:"budget"`
	Status      *string `json:"status"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List projects failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if projects == nil {
		projects = []core.Project{}
	}
	writeData(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p := core.Project{
		ID:        core.NewID("project"),
		Status:    core.StatusPending,
		CreatedAt: nowMillis(),
	}
	applyProjectRequest(&p, req)

	if err := s.store.CreateProject(r.Context(), p); err != nil {
		slog.ErrorContext(r.Context(), "Create project failed", "error", err, "name", p.Name)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	applyProjectRequest(&p, req)

	if err := s.store.UpdateProject(r.Context(), p); err != nil {
		slog.ErrorContext(r.Context(), "Update project failed", "error", err, "id", p.ID)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func applyProjectRequest(p *core.Project, req projectRequest) {
	if req.Name != nil {
		p.Name = sanitizeInput(*req.Name)
	}
	if req.Description != nil {
		p.Description = sanitizeInput(*req.Description)
	}
	if req.Budget != nil {
		p.Budget = *req.Budget
	}
	if req.Status != nil {
		p.Status = core.ProjectStatus(*req.Status)
	}
}
