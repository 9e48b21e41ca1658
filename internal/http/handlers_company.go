package http

import (
	"log/slog"
	"net/http"

	"proyeksi/internal/core"
)

type companyRequest struct {
	Name       *string `json:"name"`
	Logo       *string `json:"logo"`
	Address    *string `json:"address"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	Letterhead *string `json:"letterhead"`
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Get settings failed", "error", err)
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (s *Server) handleSaveCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Get settings failed", "error", err)
		writeStoreError(w, err)
		return
	}
	applyCompanyRequest(&settings, req)

	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		slog.ErrorContext(r.Context(), "Save settings failed", "error", err)
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func applyCompanyRequest(c *core.CompanySettings, req companyRequest) {
	if req.Name != nil {
		c.Name = sanitizeInput(*req.Name)
	}
	if req.Logo != nil {
		c.Logo = *req.Logo
	}
	if req.Address != nil {
		c.Address = sanitizeInput(*req.Address)
	}
	if req.Phone != nil {
		c.Phone = sanitizeInput(*req.Phone)
	}
	if req.Email != nil {
		c.Email = sanitizeInput(*req.Email)
	}
	if req.Letterhead != nil {
		c.Letterhead = *req.Letterhead
	}
}
