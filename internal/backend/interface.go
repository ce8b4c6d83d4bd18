package backend

import (
	"context"

	"saldo/internal/core"
)

// Ports for the remote data service. Every operation is scoped to an owner.
type (
	ProfileTable interface {
		// GetProfile returns core.ErrNotFound when the owner has never saved a salary.
		GetProfile(ctx context.Context, owner string) (core.Profile, error)
		UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error)
	}

	ExpenseTable interface {
		// InsertExpense stores e and returns the created row with its generated ID.
		InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// DeleteExpense removes the row; deleting a missing row is not an error.
		DeleteExpense(ctx context.Context, owner, id string) error
		// ListExpenses returns the owner's expenses in insertion order.
		ListExpenses(ctx context.Context, owner string) ([]core.Expense, error)
	}

	CategoryTable interface {
		// InsertCategory is a no-op when the name already exists for the owner.
		InsertCategory(ctx context.Context, owner, name string) error
		ListCategories(ctx context.Context, owner string) ([]string, error)
	}

	FixedExpenseTable interface {
		InsertFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error)
		// UpdateFixedExpenseCompleted returns core.ErrNotFound for unknown ids.
		UpdateFixedExpenseCompleted(ctx context.Context, owner, id string, completed bool) (core.FixedExpense, error)
		DeleteFixedExpense(ctx context.Context, owner, id string) error
		ListFixedExpenses(ctx context.Context, owner string) ([]core.FixedExpense, error)
	}

	UserTable interface {
		// InsertUser returns core.ErrConflict when the email is already registered.
		InsertUser(ctx context.Context, u core.User) (core.User, error)
		// FindUserByEmail returns core.ErrNotFound for unknown emails.
		FindUserByEmail(ctx context.Context, email string) (core.User, error)
	}
)

// Records groups the tables the record store reads and writes.
type Records interface {
	ProfileTable
	ExpenseTable
	CategoryTable
	FixedExpenseTable
}

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	Records
	UserTable
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
