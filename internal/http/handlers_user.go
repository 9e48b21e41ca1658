package http

import (
	"log/slog"
	"net/http"

	"proyeksi/internal/auth"
	"proyeksi/internal/core"
)

type userRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List users failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if users == nil {
		users = []core.User{}
	}
	writeData(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Password == nil || *req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "password is required")
		return
	}

	hash, err := auth.HashPassword(*req.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "Password hash failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	u := core.User{
		ID:        core.NewID("user"),
		Password:  hash,
		CreatedAt: nowMillis(),
	}
	req.Password = nil
	applyUserRequest(&u, req)

	if err := s.store.CreateUser(r.Context(), u); err != nil {
		slog.ErrorContext(r.Context(), "Create user failed", "error", err, "email", u.Email)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			slog.ErrorContext(r.Context(), "Password hash failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		u.Password = hash
	}
	req.Password = nil
	applyUserRequest(&u, req)

	if err := s.store.UpdateUser(r.Context(), u); err != nil {
		slog.ErrorContext(r.Context(), "Update user failed", "error", err, "id", u.ID)
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == authedUserID(r.Context()) {
		writeError(w, http.StatusUnprocessableEntity, "cannot delete the authenticated user")
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.invalidateReports()
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func applyUserRequest(u *core.User, req userRequest) {
	if req.Name != nil {
		u.Name = sanitizeInput(*req.Name)
	}
	if req.Email != nil {
		u.Email = sanitizeInput(*req.Email)
	}
	if req.Role != nil {
		u.Role = sanitizeInput(*req.Role)
	}
}
