package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the only date format accepted and produced by the domain.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          string
		Owner       string
		Description string
		Amount      Money
		Category    string
		Date        Date
	}

	// FixedExpense is a recurring monthly bill tracked with a completion flag
	// instead of a transaction date.
	FixedExpense struct {
		ID        string
		Owner     string
		Task      string
		Amount    Money
		Completed bool
	}

	Profile struct {
		Owner  string
		Salary Money
	}

	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidSalary    = errors.New("invalid salary")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory    = errors.New("empty category")
	ErrCategoryLong     = errors.New("category too long (max 50 characters)")
	ErrEmptyTask        = errors.New("empty task")
	ErrEmptyOwner       = errors.New("empty owner")
)

var validationErrors = []error{
	ErrInvalidDate, ErrInvalidAmount, ErrInvalidSalary, ErrEmptyDescription, ErrDescriptionLong,
	ErrEmptyCategory, ErrCategoryLong, ErrEmptyTask, ErrEmptyOwner,
}

// IsValidation reports whether err is a local validation failure, i.e. one
// that must be shown next to the form and never reaches the backend.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as
// 2024-02-30 are rejected rather than normalized.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the ISO form used for every comparison in the filter engine.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM prefix of the date.
func (d Date) MonthKey() string {
	s := d.String()
	if len(s) < 7 {
		return ""
	}
	return s[:7]
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Owner) == "" {
		return ErrEmptyOwner
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return ValidateCategoryName(e.Category)
}

func (f FixedExpense) Validate() error {
	if strings.TrimSpace(f.Owner) == "" {
		return ErrEmptyOwner
	}
	if len(strings.TrimSpace(f.Task)) == 0 {
		return ErrEmptyTask
	}
	if len(f.Task) > 200 {
		return ErrDescriptionLong
	}
	return f.Amount.Validate()
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Owner) == "" {
		return ErrEmptyOwner
	}
	if p.Salary.Cents < 0 {
		return ErrInvalidSalary
	}
	return nil
}

var (
	// ErrNotFound is returned by backends when an owner-scoped row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint (e.g. user email) is violated.
	ErrConflict = errors.New("conflict")
)
