package store

import (
	"context"
	"sync"

	"saldo/internal/backend/memory"
	"saldo/internal/core"
)

// fakeBackend wraps the memory backend and lets tests fail or hold writes
// and expense listings.
type fakeBackend struct {
	*memory.Store

	mu          sync.Mutex
	writes      int
	loads       int
	err         error
	hold        map[int]chan struct{}
	entered     chan int
	listHold    chan struct{}
	listEntered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		Store:       memory.New(),
		hold:        make(map[int]chan struct{}),
		entered:     make(chan int, 16),
		listEntered: make(chan struct{}, 16),
	}
}

// holdList makes the next ListExpenses read its rows and then block until the
// returned channel is closed, so the rows it returns can be stale.
func (f *fakeBackend) holdList() chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.listHold = ch
	f.mu.Unlock()
	return ch
}

// holdWrite makes the n-th write block until the returned channel is closed.
func (f *fakeBackend) holdWrite(n int) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.hold[n] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeBackend) failWith(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeBackend) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeBackend) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *fakeBackend) beforeWrite() error {
	f.mu.Lock()
	f.writes++
	n := f.writes
	err := f.err
	ch := f.hold[n]
	f.mu.Unlock()
	if ch != nil {
		f.entered <- n
		<-ch
	}
	return err
}

func (f *fakeBackend) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := f.beforeWrite(); err != nil {
		return core.Expense{}, err
	}
	return f.Store.InsertExpense(ctx, e)
}

func (f *fakeBackend) DeleteExpense(ctx context.Context, owner, id string) error {
	if err := f.beforeWrite(); err != nil {
		return err
	}
	return f.Store.DeleteExpense(ctx, owner, id)
}

func (f *fakeBackend) InsertFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error) {
	if err := f.beforeWrite(); err != nil {
		return core.FixedExpense{}, err
	}
	return f.Store.InsertFixedExpense(ctx, fe)
}

func (f *fakeBackend) UpdateFixedExpenseCompleted(ctx context.Context, owner, id string, completed bool) (core.FixedExpense, error) {
	if err := f.beforeWrite(); err != nil {
		return core.FixedExpense{}, err
	}
	return f.Store.UpdateFixedExpenseCompleted(ctx, owner, id, completed)
}

func (f *fakeBackend) DeleteFixedExpense(ctx context.Context, owner, id string) error {
	if err := f.beforeWrite(); err != nil {
		return err
	}
	return f.Store.DeleteFixedExpense(ctx, owner, id)
}

func (f *fakeBackend) UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if err := f.beforeWrite(); err != nil {
		return core.Profile{}, err
	}
	return f.Store.UpsertProfile(ctx, p)
}

func (f *fakeBackend) InsertCategory(ctx context.Context, owner, name string) error {
	if err := f.beforeWrite(); err != nil {
		return err
	}
	return f.Store.InsertCategory(ctx, owner, name)
}

func (f *fakeBackend) ListExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	f.mu.Lock()
	f.loads++
	ch := f.listHold
	f.listHold = nil
	f.mu.Unlock()
	rows, err := f.Store.ListExpenses(ctx, owner)
	if ch != nil {
		f.listEntered <- struct{}{}
		<-ch
	}
	return rows, err
}
