package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	StatusPending    ProjectStatus = "pending"
	StatusInProgress ProjectStatus = "in-progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusOnHold     ProjectStatus = "onhold"
)

const (
	CategoryPettyCash   ExpenseCategory = "petty-cash"
	CategoryOperational ExpenseCategory = "operational"
	CategoryMaterial    ExpenseCategory = "material"
	CategoryLabor       ExpenseCategory = "labor"
	CategoryOther       ExpenseCategory = "other"
)

type (
	ProjectStatus   string
	ExpenseCategory string

	// Project is a tracked customer project. Budget is a whole-unit monetary
	// amount; CreatedAt is epoch milliseconds.
	Project struct {
		ID          string        `json:"id"`
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Budget      int64         `json:"budget"`
		Status      ProjectStatus `json:"status"`
		CreatedAt   int64         `json:"createdAt"`
	}

	// Task belongs to exactly one project for its lifetime. AssigneeID is
	// empty when the task is unassigned.
	Task struct {
		ID          string `json:"id"`
		ProjectID   string `json:"projectId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		AssigneeID  string `json:"assignedTo,omitempty"`
		Completed   bool   `json:"completed"`
		CreatedAt   int64  `json:"createdAt"`
	}

	// Expense is money spent against a project. Date is the business date of
	// the transaction, distinct from CreatedAt; both are epoch milliseconds.
	Expense struct {
		ID          string          `json:"id"`
		ProjectID   string          `json:"projectId"`
		Description string          `json:"description"`
		Amount      int64           `json:"amount"`
		Category    ExpenseCategory `json:"category"`
		Date        int64           `json:"date"`
		CreatedAt   int64           `json:"createdAt"`
	}

	// User is an account that can log in and be assigned tasks. Password holds
	// the bcrypt hash and never leaves the backend.
	User struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		Password  string `json:"-"`
		CreatedAt int64  `json:"createdAt"`
	}

	// CompanySettings is a singleton record used for document letterheads.
	CompanySettings struct {
		Name       string `json:"name"`
		Logo       string `json:"logo,omitempty"`
		Address    string `json:"address"`
		Phone      string `json:"phone"`
		Email      string `json:"email"`
		Letterhead string `json:"letterhead,omitempty"`
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyEmail      = errors.New("empty email")
	ErrEmptyProjectRef = errors.New("missing project reference")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrInvalidStatus   = errors.New("invalid project status")
	ErrInvalidCategory = errors.New("invalid expense category")
)

// NewID returns an opaque identifier with a kind prefix, e.g. "project-<uuid>".
// Identifiers are random so they stay stable across exports and re-imports.
func NewID(kind string) string {
	return kind + "-" + uuid.NewString()
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryPettyCash, CategoryOperational, CategoryMaterial, CategoryLabor, CategoryOther:
		return true
	}
	return false
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Budget < 0 {
		return ErrNegativeAmount
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.ProjectID == "" {
		return ErrEmptyProjectRef
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyName
	}
	if e.ProjectID == "" {
		return ErrEmptyProjectRef
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}
