// Package memory is an in-process backend used for local development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
)

type Store struct {
	mu         sync.Mutex
	seedCats   []string
	profiles   map[string]core.Profile
	expenses   []core.Expense
	fixed      []core.FixedExpense
	categories map[string][]string
	users      map[string]core.User
}

// New returns an empty store. seedCats are reported as remote categories for
// every owner, in addition to the ones inserted at runtime.
func New(seedCats ...string) *Store {
	return &Store{
		seedCats:   dedupe(seedCats),
		profiles:   make(map[string]core.Profile),
		categories: make(map[string][]string),
		users:      make(map[string]core.User),
	}
}

// NewFromFiles seeds the store from base/seed_categories.txt when present.
func NewFromFiles(base string) *Store {
	return New(readLines(filepath.Join(base, "seed_categories.txt"))...)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) GetProfile(_ context.Context, owner string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Owner] = p
	return p, nil
}

// InsertExpense stores the expense under a fresh id.
func (s *Store) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.expenses[:0]
	for _, e := range s.expenses {
		if e.Owner == owner && e.ID == id {
			continue
		}
		out = append(out, e)
	}
	s.expenses = out
	return nil
}

func (s *Store) ListExpenses(_ context.Context, owner string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, owner, name string) error {
	if err := core.ValidateCategoryName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories[owner] {
		if c == name {
			return nil
		}
	}
	s.categories[owner] = append(s.categories[owner], name)
	return nil
}

func (s *Store) ListCategories(_ context.Context, owner string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dedupe(append(append([]string(nil), s.seedCats...), s.categories[owner]...)), nil
}

func (s *Store) InsertFixedExpense(_ context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	f.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed = append(s.fixed, f)
	return f, nil
}

func (s *Store) UpdateFixedExpenseCompleted(_ context.Context, owner, id string, completed bool) (core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fixed {
		if s.fixed[i].Owner == owner && s.fixed[i].ID == id {
			s.fixed[i].Completed = completed
			return s.fixed[i], nil
		}
	}
	return core.FixedExpense{}, core.ErrNotFound
}

func (s *Store) DeleteFixedExpense(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.fixed[:0]
	for _, f := range s.fixed {
		if f.Owner == owner && f.ID == id {
			continue
		}
		out = append(out, f)
	}
	s.fixed = out
	return nil
}

func (s *Store) ListFixedExpenses(_ context.Context, owner string) ([]core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FixedExpense
	for _, f := range s.fixed {
		if f.Owner == owner {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) InsertUser(_ context.Context, u core.User) (core.User, error) {
	key := strings.ToLower(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return core.User{}, core.ErrConflict
	}
	u.ID = uuid.NewString()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[key] = u
	return u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
