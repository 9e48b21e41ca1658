package http

import (
	"errors"
	"log/slog"
	"net/http"

	"proyeksi/internal/auth"
	"proyeksi/internal/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same response as a bad password so the endpoint leaks nothing
			// about which accounts exist.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.ErrorContext(r.Context(), "Login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !auth.CheckPassword(req.Password, u.Password) {
		slog.WarnContext(r.Context(), "Login rejected", "email", req.Email)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.InfoContext(r.Context(), "User logged in", "user_id", u.ID)
	writeData(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}

// handleLogout exists so clients have a definite end-of-session call. Tokens
// are stateless, the client just discards its copy.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	slog.InfoContext(r.Context(), "User logged out", "user_id", authedUserID(r.Context()))
	writeData(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), authedUserID(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, u)
}
