package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, owner string) (core.Profile, error) {
	cents, err := r.queries.GetProfileSalary(ctx, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return core.Profile{Owner: owner, Salary: core.Money{Cents: cents}}, nil
}

func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	if err := r.queries.UpsertProfile(ctx, p.Owner, p.Salary.Cents); err != nil {
		return core.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	slog.DebugContext(ctx, "Profile saved to SQLite", "owner", p.Owner, "salary_cents", p.Salary.Cents)
	return p, nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	err := r.queries.CreateExpense(ctx, Expense{
		ID:          e.ID,
		Owner:       e.Owner,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Date:        e.Date.String(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"owner", e.Owner,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, owner, id string) error {
	if err := r.queries.DeleteExpense(ctx, owner, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %s has invalid date %q: %w", row.ID, row.Date, err)
		}
		expenses = append(expenses, core.Expense{
			ID:          row.ID,
			Owner:       row.Owner,
			Description: row.Description,
			Amount:      core.Money{Cents: row.AmountCents},
			Category:    row.Category,
			Date:        date,
		})
	}
	return expenses, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, owner, name string) error {
	if err := core.ValidateCategoryName(name); err != nil {
		return err
	}
	if err := r.queries.CreateCategory(ctx, owner, name); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, owner string) ([]string, error) {
	names, err := r.queries.ListCategories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return names, nil
}

func (r *SQLiteRepository) InsertFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	f.ID = uuid.NewString()
	err := r.queries.CreateFixedExpense(ctx, FixedExpense{
		ID:          f.ID,
		Owner:       f.Owner,
		Task:        f.Task,
		AmountCents: f.Amount.Cents,
		Completed:   f.Completed,
	})
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) UpdateFixedExpenseCompleted(ctx context.Context, owner, id string, completed bool) (core.FixedExpense, error) {
	row, err := r.queries.UpdateFixedExpenseCompleted(ctx, owner, id, completed)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedExpense{}, core.ErrNotFound
	}
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("update fixed expense %s: %w", id, err)
	}
	return fixedFromRow(row), nil
}

func (r *SQLiteRepository) DeleteFixedExpense(ctx context.Context, owner, id string) error {
	if err := r.queries.DeleteFixedExpense(ctx, owner, id); err != nil {
		return fmt.Errorf("delete fixed expense %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListFixedExpenses(ctx context.Context, owner string) ([]core.FixedExpense, error) {
	rows, err := r.queries.ListFixedExpenses(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	out := make([]core.FixedExpense, 0, len(rows))
	for _, row := range rows {
		out = append(out, fixedFromRow(row))
	}
	return out, nil
}

func (r *SQLiteRepository) InsertUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = uuid.NewString()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	inserted, err := r.queries.CreateUser(ctx, User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	if !inserted {
		return core.User{}, core.ErrConflict
	}
	return u, nil
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return core.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func fixedFromRow(row FixedExpense) core.FixedExpense {
	return core.FixedExpense{
		ID:        row.ID,
		Owner:     row.Owner,
		Task:      row.Task,
		Amount:    core.Money{Cents: row.AmountCents},
		Completed: row.Completed,
	}
}
