package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Expense struct {
	ID          string
	Owner       string
	Description string
	AmountCents int64
	Category    string
	Date        string
}

type FixedExpense struct {
	ID          string
	Owner       string
	Task        string
	AmountCents int64
	Completed   bool
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

const getProfileSalary = `SELECT salary_cents FROM profiles WHERE owner = ?`

func (q *Queries) GetProfileSalary(ctx context.Context, owner string) (int64, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, getProfileSalary, owner).Scan(&cents)
	return cents, err
}

const upsertProfile = `
INSERT INTO profiles (owner, salary_cents, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(owner) DO UPDATE SET salary_cents = excluded.salary_cents, updated_at = excluded.updated_at`

func (q *Queries) UpsertProfile(ctx context.Context, owner string, salaryCents int64) error {
	_, err := q.db.ExecContext(ctx, upsertProfile, owner, salaryCents)
	return err
}

const createExpense = `
INSERT INTO expenses (id, owner, description, amount_cents, category, date)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, e Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense, e.ID, e.Owner, e.Description, e.AmountCents, e.Category, e.Date)
	return err
}

const deleteExpense = `DELETE FROM expenses WHERE owner = ? AND id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, owner, id string) error {
	_, err := q.db.ExecContext(ctx, deleteExpense, owner, id)
	return err
}

const listExpenses = `
SELECT id, owner, description, amount_cents, category, date
FROM expenses WHERE owner = ? ORDER BY created_at, rowid`

func (q *Queries) ListExpenses(ctx context.Context, owner string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.Owner, &i.Description, &i.AmountCents, &i.Category, &i.Date); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCategory = `INSERT INTO categories (owner, name) VALUES (?, ?) ON CONFLICT(owner, name) DO NOTHING`

func (q *Queries) CreateCategory(ctx context.Context, owner, name string) error {
	_, err := q.db.ExecContext(ctx, createCategory, owner, name)
	return err
}

const listCategories = `SELECT name FROM categories WHERE owner = ? ORDER BY created_at, rowid`

func (q *Queries) ListCategories(ctx context.Context, owner string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createFixedExpense = `
INSERT INTO fixed_expenses (id, owner, task, amount_cents, completed)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateFixedExpense(ctx context.Context, f FixedExpense) error {
	_, err := q.db.ExecContext(ctx, createFixedExpense, f.ID, f.Owner, f.Task, f.AmountCents, f.Completed)
	return err
}

const updateFixedExpenseCompleted = `
UPDATE fixed_expenses SET completed = ? WHERE owner = ? AND id = ?
RETURNING id, owner, task, amount_cents, completed`

func (q *Queries) UpdateFixedExpenseCompleted(ctx context.Context, owner, id string, completed bool) (FixedExpense, error) {
	var i FixedExpense
	err := q.db.QueryRowContext(ctx, updateFixedExpenseCompleted, completed, owner, id).
		Scan(&i.ID, &i.Owner, &i.Task, &i.AmountCents, &i.Completed)
	return i, err
}

const deleteFixedExpense = `DELETE FROM fixed_expenses WHERE owner = ? AND id = ?`

func (q *Queries) DeleteFixedExpense(ctx context.Context, owner, id string) error {
	_, err := q.db.ExecContext(ctx, deleteFixedExpense, owner, id)
	return err
}

const listFixedExpenses = `
SELECT id, owner, task, amount_cents, completed
FROM fixed_expenses WHERE owner = ? ORDER BY created_at, rowid`

func (q *Queries) ListFixedExpenses(ctx context.Context, owner string) ([]FixedExpense, error) {
	rows, err := q.db.QueryContext(ctx, listFixedExpenses, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FixedExpense
	for rows.Next() {
		var i FixedExpense
		if err := rows.Scan(&i.ID, &i.Owner, &i.Task, &i.AmountCents, &i.Completed); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createUser = `
INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT(email) DO NOTHING`

// CreateUser reports whether a row was inserted; false means the email is taken.
func (q *Queries) CreateUser(ctx context.Context, u User) (bool, error) {
	res, err := q.db.ExecContext(ctx, createUser, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const getUserByEmail = `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var i User
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt)
	return i, err
}
