package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"proyeksi/internal/auth"
	"proyeksi/internal/core"
)

type contextKey string

const userIDKey contextKey = "user_id"

// requireAuth rejects requests without a valid bearer token and puts the
// authenticated user ID on the context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := auth.ParseJWT(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// authedUserID returns the user ID placed on the context by requireAuth.
func authedUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parsePeriod reads the period query parameter, defaulting to "all" for
// anything unrecognized.
func parsePeriod(r *http.Request) core.Period {
	return core.ParsePeriod(r.URL.Query().Get("period"))
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
