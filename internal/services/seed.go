package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"proyeksi/internal/auth"
	"proyeksi/internal/core"
	"proyeksi/internal/store"
)

// EnsureAdmin creates a default administrator account when no users exist yet.
// Called once at startup so a fresh install is immediately usable.
func EnsureAdmin(ctx context.Context, st store.UserStore, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	n, err := st.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := core.User{
		ID:        core.NewID("user"),
		Name:      "Administrator",
		Email:     email,
		Role:      "admin",
		Password:  hash,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := st.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.InfoContext(ctx, "Seeded default admin user", "email", email)
	return nil
}
