// Package store holds one owner's records in memory and keeps them in step
// with the backend. Every mutation is confirmed remotely before it is applied.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"saldo/internal/backend"
	"saldo/internal/core"
	"saldo/internal/log"
)

// ErrSuperseded is returned when the backend confirmed a write but a newer
// request for the same record started meanwhile, so the result was not applied.
var ErrSuperseded = errors.New("store: superseded by a newer request")

type Store struct {
	owner         string
	be            backend.Records
	defaultSalary core.Money
	logger        *log.Logger
	diag          *log.StructuredLogger

	mu          sync.Mutex
	expenses    []core.Expense
	fixed       []core.FixedExpense
	salary      core.Money
	categories  *core.CategorySet
	seq         uint64
	latest      map[string]uint64
	writes      uint64 // confirmed writes applied, for Load's staleness check
	needsReload bool
}

// Snapshot is a copy of the store state safe to use without locking.
type Snapshot struct {
	Owner      string
	Expenses   []core.Expense
	Fixed      []core.FixedExpense
	Salary     core.Money
	Categories []string
}

type Option func(*Store)

// WithDefaultSalary sets the salary used while the owner has no saved profile.
func WithDefaultSalary(m core.Money) Option {
	return func(s *Store) { s.defaultSalary = m }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(owner string, be backend.Records, opts ...Option) *Store {
	s := &Store{
		owner:      owner,
		be:         be,
		categories: core.NewCategorySet(core.DefaultCategories...),
		latest:     make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)
	s.diag = log.NewStructuredLogger(s.logger)
	s.salary = s.defaultSalary
	return s
}

func (s *Store) Owner() string { return s.owner }

// maxLoadAttempts bounds how often Load re-reads while writes keep landing.
const maxLoadAttempts = 3

type loaded struct {
	profile    core.Profile
	hasProfile bool
	expenses   []core.Expense
	fixed      []core.FixedExpense
	categories *core.CategorySet
}

// Load replaces the in-memory state with the backend's rows. The four tables
// are read concurrently. A write confirmed while the tables are being read
// makes the read stale, so Load reads again; if writes keep landing it keeps
// the newest read and flags the store for another reload. Requests still in
// flight when Load completes are treated as superseded.
func (s *Store) Load(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		s.mu.Lock()
		gen := s.writes
		s.mu.Unlock()

		l, err := s.read(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Store load failed", log.FieldOwner, s.owner, log.FieldOperation, log.OpLoad, log.FieldError, err)
			return err
		}

		s.mu.Lock()
		stale := s.writes != gen
		if stale && attempt < maxLoadAttempts {
			s.mu.Unlock()
			s.logger.DebugContext(ctx, "Write landed during load, reading again",
				log.FieldOwner, s.owner, "attempt", attempt)
			continue
		}
		s.expenses = l.expenses
		s.fixed = l.fixed
		s.categories = l.categories
		s.salary = s.defaultSalary
		if l.hasProfile {
			s.salary = l.profile.Salary
		}
		s.latest = make(map[string]uint64)
		s.needsReload = stale
		s.mu.Unlock()

		if stale {
			s.logger.WarnContext(ctx, "Store load raced with writes, will reload",
				log.FieldOwner, s.owner, "attempts", attempt)
		}
		s.logger.DebugContext(ctx, "Store loaded",
			log.FieldOwner, s.owner,
			"expenses", len(l.expenses),
			"fixed_expenses", len(l.fixed),
			"categories", l.categories.Len())
		return nil
	}
}

func (s *Store) read(ctx context.Context) (loaded, error) {
	var (
		l    = loaded{hasProfile: true}
		cats []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.be.GetProfile(gctx, s.owner)
		if errors.Is(err, core.ErrNotFound) {
			l.hasProfile = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		l.profile = p
		return nil
	})
	g.Go(func() (err error) {
		l.expenses, err = s.be.ListExpenses(gctx, s.owner)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		l.fixed, err = s.be.ListFixedExpenses(gctx, s.owner)
		if err != nil {
			return fmt.Errorf("load fixed expenses: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		cats, err = s.be.ListCategories(gctx, s.owner)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return loaded{}, err
	}

	l.categories = core.NewCategorySet(core.DefaultCategories...)
	for _, c := range cats {
		l.categories.Add(c)
	}
	return l, nil
}

// NeedsReload reports whether a confirmed write was skipped and the state may
// have drifted from the backend.
func (s *Store) NeedsReload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsReload
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Owner:      s.owner,
		Expenses:   append([]core.Expense(nil), s.expenses...),
		Fixed:      append([]core.FixedExpense(nil), s.fixed...),
		Salary:     s.salary,
		Categories: s.categories.Names(),
	}
}

type token struct {
	key string
	seq uint64
}

// begin issues the newest token for key. An empty key gets a fresh one.
func (s *Store) begin(key string) token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if key == "" {
		key = fmt.Sprintf("insert:%d", s.seq)
	}
	s.latest[key] = s.seq
	return token{key: key, seq: s.seq}
}

// abandon releases a token whose remote call failed.
func (s *Store) abandon(t token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[t.key] == t.seq {
		delete(s.latest, t.key)
	}
}

// commit applies a confirmed write if t is still the latest token for its key
// and ctx is still live. Otherwise the store is flagged for reload.
func (s *Store) commit(ctx context.Context, t token, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[t.key] != t.seq {
		s.needsReload = true
		return ErrSuperseded
	}
	delete(s.latest, t.key)
	if err := ctx.Err(); err != nil {
		s.needsReload = true
		return err
	}
	apply()
	s.writes++
	return nil
}

func (s *Store) fail(ctx context.Context, t token, op string, err error) error {
	s.abandon(t)
	s.diag.LogWriteFailed(ctx, s.owner, t.key, op, err)
	return err
}

func (s *Store) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Owner = s.owner
	e.ID = ""
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	t := s.begin("")
	created, err := s.be.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, s.fail(ctx, t, log.OpCreate, fmt.Errorf("insert expense: %w", err))
	}
	err = s.commit(ctx, t, func() {
		s.expenses = append(s.expenses, created)
	})
	return created, err
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	t := s.begin("expense:" + id)
	if err := s.be.DeleteExpense(ctx, s.owner, id); err != nil {
		return s.fail(ctx, t, log.OpDelete, fmt.Errorf("delete expense: %w", err))
	}
	return s.commit(ctx, t, func() {
		out := make([]core.Expense, 0, len(s.expenses))
		for _, e := range s.expenses {
			if e.ID != id {
				out = append(out, e)
			}
		}
		s.expenses = out
	})
}

func (s *Store) AddFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	f.Owner = s.owner
	f.ID = ""
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	t := s.begin("")
	created, err := s.be.InsertFixedExpense(ctx, f)
	if err != nil {
		return core.FixedExpense{}, s.fail(ctx, t, log.OpCreate, fmt.Errorf("insert fixed expense: %w", err))
	}
	err = s.commit(ctx, t, func() {
		s.fixed = append(s.fixed, created)
	})
	return created, err
}

// SetFixedExpenseCompleted stores the completion flag and replaces the local
// row with the one the backend returned.
func (s *Store) SetFixedExpenseCompleted(ctx context.Context, id string, completed bool) (core.FixedExpense, error) {
	t := s.begin("fixed:" + id)
	updated, err := s.be.UpdateFixedExpenseCompleted(ctx, s.owner, id, completed)
	if err != nil {
		return core.FixedExpense{}, s.fail(ctx, t, log.OpUpdate, fmt.Errorf("update fixed expense: %w", err))
	}
	err = s.commit(ctx, t, func() {
		for i := range s.fixed {
			if s.fixed[i].ID == id {
				s.fixed[i] = updated
				return
			}
		}
	})
	return updated, err
}

// ToggleFixedExpense flips the completion flag of a locally known row.
func (s *Store) ToggleFixedExpense(ctx context.Context, id string) (core.FixedExpense, error) {
	s.mu.Lock()
	current, found := core.FixedExpense{}, false
	for _, f := range s.fixed {
		if f.ID == id {
			current, found = f, true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return core.FixedExpense{}, core.ErrNotFound
	}
	return s.SetFixedExpenseCompleted(ctx, id, !current.Completed)
}

func (s *Store) DeleteFixedExpense(ctx context.Context, id string) error {
	t := s.begin("fixed:" + id)
	if err := s.be.DeleteFixedExpense(ctx, s.owner, id); err != nil {
		return s.fail(ctx, t, log.OpDelete, fmt.Errorf("delete fixed expense: %w", err))
	}
	return s.commit(ctx, t, func() {
		out := make([]core.FixedExpense, 0, len(s.fixed))
		for _, f := range s.fixed {
			if f.ID != id {
				out = append(out, f)
			}
		}
		s.fixed = out
	})
}

func (s *Store) UpdateSalary(ctx context.Context, salary core.Money) error {
	p := core.Profile{Owner: s.owner, Salary: salary}
	if err := p.Validate(); err != nil {
		return err
	}
	t := s.begin("salary")
	saved, err := s.be.UpsertProfile(ctx, p)
	if err != nil {
		return s.fail(ctx, t, log.OpUpdate, fmt.Errorf("update salary: %w", err))
	}
	return s.commit(ctx, t, func() {
		s.salary = saved.Salary
	})
}

// AddCategory adds name to the owner's category set. A name already present
// (exact, case-sensitive match) is skipped without touching the backend and
// reported as added=false.
func (s *Store) AddCategory(ctx context.Context, name string) (added bool, err error) {
	if err := core.ValidateCategoryName(name); err != nil {
		return false, err
	}
	s.mu.Lock()
	exists := s.categories.Contains(name)
	s.mu.Unlock()
	if exists {
		return false, nil
	}

	t := s.begin("category:" + name)
	if err := s.be.InsertCategory(ctx, s.owner, name); err != nil {
		return false, s.fail(ctx, t, log.OpCreate, fmt.Errorf("insert category: %w", err))
	}
	err = s.commit(ctx, t, func() {
		added = s.categories.Add(name)
	})
	return added, err
}
