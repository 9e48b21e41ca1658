package store

import (
	"context"
	"errors"

	"proyeksi/internal/core"
)

// ErrNotFound is returned when a referenced entity does not exist. Callers
// translate it to a user-visible not-found response rather than fabricating
// empty records.
var ErrNotFound = errors.New("entity not found")

// ErrEmailTaken is returned when a user create or update would give two
// accounts the same email. Emails are unique case-insensitively; login looks
// accounts up by email, so a duplicate would make it ambiguous.
var ErrEmailTaken = errors.New("email already in use")

// Ports for the Entity Store. The aggregation core only ever reads; writes go
// through the same store so both backends keep the cascade rule (deleting a
// project removes its tasks and expenses) in one place.
type (
	ProjectStore interface {
		ListProjects(ctx context.Context) ([]core.Project, error)
		GetProject(ctx context.Context, id string) (core.Project, error)
		CreateProject(ctx context.Context, p core.Project) error
		UpdateProject(ctx context.Context, p core.Project) error
		// DeleteProject cascades to the project's tasks and expenses.
		DeleteProject(ctx context.Context, id string) error
	}

	TaskStore interface {
		// ListTasks returns all tasks, or only the given project's when
		// projectID is non-empty. No ordering is guaranteed.
		ListTasks(ctx context.Context, projectID string) ([]core.Task, error)
		GetTask(ctx context.Context, id string) (core.Task, error)
		CreateTask(ctx context.Context, t core.Task) error
		UpdateTask(ctx context.Context, t core.Task) error
		DeleteTask(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context, projectID string) ([]core.Expense, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) error
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id string) error
	}

	UserStore interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		CountUsers(ctx context.Context) (int64, error)
		// CreateUser and UpdateUser return ErrEmailTaken when the email
		// already belongs to another user.
		CreateUser(ctx context.Context, u core.User) error
		UpdateUser(ctx context.Context, u core.User) error
		DeleteUser(ctx context.Context, id string) error
	}

	SettingsStore interface {
		// GetSettings returns the singleton record, or defaults when it has
		// never been saved.
		GetSettings(ctx context.Context) (core.CompanySettings, error)
		SaveSettings(ctx context.Context, s core.CompanySettings) error
	}

	// EntityStore is the full persistence contract the HTTP layer depends on.
	EntityStore interface {
		ProjectStore
		TaskStore
		ExpenseStore
		UserStore
		SettingsStore
	}
)

// DefaultSettings is returned before company settings are first saved.
func DefaultSettings() core.CompanySettings {
	return core.CompanySettings{Name: "IkuHub Proyeksi"}
}
