package store

import (
	"context"
	"errors"
	"testing"

	"saldo/internal/core"
	"saldo/internal/log"
)

func newLoadedStore(t *testing.T, be *fakeBackend) *Store {
	t.Helper()
	s := New("u1", be, WithLogger(log.Discard()), WithDefaultSalary(core.Money{Cents: 500000}))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func expense(desc string, cents int64, cat string, y, m, d int) core.Expense {
	return core.Expense{Description: desc, Amount: core.Money{Cents: cents}, Category: cat, Date: core.NewDate(y, m, d)}
}

func TestLoadDefaults(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	if err := be.Store.InsertCategory(ctx, "u1", "Pets"); err != nil {
		t.Fatal(err)
	}
	if err := be.Store.InsertCategory(ctx, "u1", "Food"); err != nil {
		t.Fatal(err)
	}

	snap := newLoadedStore(t, be).Snapshot()
	if snap.Salary.Cents != 500000 {
		t.Errorf("Salary = %d, want default 500000", snap.Salary.Cents)
	}
	if len(snap.Categories) != len(core.DefaultCategories)+1 || snap.Categories[len(snap.Categories)-1] != "Pets" {
		t.Errorf("Categories = %v", snap.Categories)
	}
	if len(snap.Expenses) != 0 || len(snap.Fixed) != 0 {
		t.Errorf("expected empty lists, got %+v", snap)
	}
}

func TestMutationsApplyAfterConfirmation(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	s := newLoadedStore(t, be)

	food, err := s.AddExpense(ctx, expense("Groceries", 8000, "Food", 2024, 1, 5))
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if _, err := s.AddExpense(ctx, expense("Bus", 2000, "Transport", 2024, 2, 1)); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if food.ID == "" || food.Owner != "u1" {
		t.Fatalf("unexpected created row %+v", food)
	}

	rent, err := s.AddFixedExpense(ctx, core.FixedExpense{Task: "Rent", Amount: core.Money{Cents: 80000}})
	if err != nil {
		t.Fatalf("AddFixedExpense: %v", err)
	}
	if toggled, err := s.ToggleFixedExpense(ctx, rent.ID); err != nil || !toggled.Completed {
		t.Fatalf("ToggleFixedExpense = %+v, %v", toggled, err)
	}
	if err := s.UpdateSalary(ctx, core.Money{Cents: 100000}); err != nil {
		t.Fatalf("UpdateSalary: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Expenses) != 2 || snap.Expenses[0].ID != food.ID {
		t.Fatalf("expenses = %+v", snap.Expenses)
	}
	if len(snap.Fixed) != 1 || !snap.Fixed[0].Completed {
		t.Fatalf("fixed = %+v", snap.Fixed)
	}
	if snap.Salary.Cents != 100000 {
		t.Fatalf("salary = %d", snap.Salary.Cents)
	}

	if err := s.DeleteExpense(ctx, food.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := s.DeleteFixedExpense(ctx, rent.ID); err != nil {
		t.Fatalf("DeleteFixedExpense: %v", err)
	}
	snap = s.Snapshot()
	if len(snap.Expenses) != 1 || len(snap.Fixed) != 0 {
		t.Fatalf("after delete: %+v", snap)
	}

	// A fresh load from the backend sees the same state.
	fresh := newLoadedStore(t, be).Snapshot()
	if len(fresh.Expenses) != 1 || fresh.Salary.Cents != 100000 {
		t.Fatalf("backend state diverged: %+v", fresh)
	}
}

func TestValidationNeverReachesBackend(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	s := newLoadedStore(t, be)

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero amount", func() error {
			_, err := s.AddExpense(ctx, expense("x", 0, "Food", 2024, 1, 1))
			return err
		}, core.ErrInvalidAmount},
		{"missing date", func() error {
			_, err := s.AddExpense(ctx, core.Expense{Description: "x", Amount: core.Money{Cents: 1}, Category: "Food"})
			return err
		}, core.ErrInvalidDate},
		{"empty task", func() error {
			_, err := s.AddFixedExpense(ctx, core.FixedExpense{Amount: core.Money{Cents: 1}})
			return err
		}, core.ErrEmptyTask},
		{"negative salary", func() error {
			return s.UpdateSalary(ctx, core.Money{Cents: -1})
		}, core.ErrInvalidSalary},
		{"blank category", func() error {
			_, err := s.AddCategory(ctx, "   ")
			return err
		}, core.ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) || !core.IsValidation(err) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
	if n := be.writeCount(); n != 0 {
		t.Fatalf("backend saw %d writes", n)
	}
}

func TestBackendFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	s := newLoadedStore(t, be)
	kept, err := s.AddExpense(ctx, expense("Keep", 100, "Food", 2024, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()

	boom := errors.New("backend down")
	be.failWith(boom)

	if _, err := s.AddExpense(ctx, expense("Lost", 100, "Food", 2024, 1, 2)); !errors.Is(err, boom) {
		t.Errorf("AddExpense error = %v", err)
	}
	if err := s.DeleteExpense(ctx, kept.ID); !errors.Is(err, boom) {
		t.Errorf("DeleteExpense error = %v", err)
	}
	if err := s.UpdateSalary(ctx, core.Money{Cents: 1}); !errors.Is(err, boom) {
		t.Errorf("UpdateSalary error = %v", err)
	}
	if _, err := s.AddCategory(ctx, "Pets"); !errors.Is(err, boom) {
		t.Errorf("AddCategory error = %v", err)
	}

	after := s.Snapshot()
	if len(after.Expenses) != len(before.Expenses) || after.Salary != before.Salary || len(after.Categories) != len(before.Categories) {
		t.Fatalf("state changed after failures: before=%+v after=%+v", before, after)
	}
	if s.NeedsReload() {
		t.Fatalf("failed writes must not flag a reload")
	}
}

func TestAddCategoryDuplicateSkipsBackend(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	s := newLoadedStore(t, be)

	added, err := s.AddCategory(ctx, "Food")
	if err != nil || added {
		t.Fatalf("AddCategory(Food) = %v, %v; want false, nil", added, err)
	}
	if be.writeCount() != 0 {
		t.Fatalf("duplicate category reached the backend")
	}

	if added, err := s.AddCategory(ctx, "Pets"); err != nil || !added {
		t.Fatalf("AddCategory(Pets) = %v, %v", added, err)
	}
	if added, _ := s.AddCategory(ctx, "Pets"); added {
		t.Fatalf("second AddCategory(Pets) should be a no-op")
	}
	if added, _ := s.AddCategory(ctx, "pets"); !added {
		t.Fatalf("category names are case-sensitive")
	}
	if n := be.writeCount(); n != 2 {
		t.Fatalf("writes = %d, want 2", n)
	}
}

func TestToggleUnknownFixedExpense(t *testing.T) {
	s := newLoadedStore(t, newFakeBackend())
	if _, err := s.ToggleFixedExpense(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStaleResultIsNotApplied(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	s := newLoadedStore(t, be)

	rent, err := s.AddFixedExpense(ctx, core.FixedExpense{Task: "Rent", Amount: core.Money{Cents: 80000}})
	if err != nil {
		t.Fatal(err)
	}

	release := be.holdWrite(2)
	first := make(chan error, 1)
	go func() {
		_, err := s.SetFixedExpenseCompleted(ctx, rent.ID, true)
		first <- err
	}()
	<-be.entered

	if _, err := s.SetFixedExpenseCompleted(ctx, rent.ID, false); err != nil {
		t.Fatalf("second request: %v", err)
	}
	close(release)

	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first request error = %v, want ErrSuperseded", err)
	}
	if s.Snapshot().Fixed[0].Completed {
		t.Fatalf("stale result overwrote the newer one")
	}
	if !s.NeedsReload() {
		t.Fatalf("expected reload flag after a skipped confirmed write")
	}

	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if !s.Snapshot().Fixed[0].Completed || s.NeedsReload() {
		t.Fatalf("reload should adopt the backend state")
	}
}

func TestCancelledRequestIsNotApplied(t *testing.T) {
	be := newFakeBackend()
	s := newLoadedStore(t, be)

	ctx, cancel := context.WithCancel(context.Background())
	release := be.holdWrite(1)
	done := make(chan error, 1)
	go func() {
		_, err := s.AddExpense(ctx, expense("Late", 500, "Food", 2024, 3, 1))
		done <- err
	}()
	<-be.entered
	cancel()
	close(release)

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(s.Snapshot().Expenses) != 0 {
		t.Fatalf("cancelled result was applied")
	}
	if !s.NeedsReload() {
		t.Fatalf("expected reload flag")
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Snapshot().Expenses) != 1 {
		t.Fatalf("reload should pick up the confirmed insert")
	}
}

func TestLoadDoesNotDropWriteConfirmedDuringRead(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	s := newLoadedStore(t, be)

	release := be.holdList()
	loaded := make(chan error, 1)
	go func() { loaded <- s.Load(ctx) }()
	<-be.listEntered

	if _, err := s.AddExpense(ctx, expense("Coffee", 250, "Food", 2024, 4, 2)); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	close(release)
	if err := <-loaded; err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := s.Snapshot().Expenses; len(got) != 1 || got[0].Description != "Coffee" {
		t.Fatalf("expenses after load = %+v, want the confirmed insert", got)
	}
	if s.NeedsReload() {
		t.Fatalf("a settled re-read should not leave the store flagged")
	}
}

func TestLoadFlagsReloadWhenWritesKeepLanding(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	s := newLoadedStore(t, be)

	release := be.holdList()
	loaded := make(chan error, 1)
	go func() { loaded <- s.Load(ctx) }()
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		<-be.listEntered
		if _, err := s.AddExpense(ctx, expense("Tick", 100, "Food", 2024, 4, attempt+1)); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
		var next chan struct{}
		if attempt+1 < maxLoadAttempts {
			next = be.holdList()
		}
		close(release)
		release = next
	}
	if err := <-loaded; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.NeedsReload() {
		t.Fatalf("expected reload flag when every read raced a write")
	}

	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Snapshot().Expenses); n != maxLoadAttempts || s.NeedsReload() {
		t.Fatalf("expenses = %d, NeedsReload = %v after a quiet reload", n, s.NeedsReload())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := newLoadedStore(t, newFakeBackend())
	if _, err := s.AddExpense(ctx, expense("A", 100, "Food", 2024, 1, 1)); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap.Expenses[0].Description = "mutated"
	snap.Categories[0] = "mutated"
	again := s.Snapshot()
	if again.Expenses[0].Description != "A" || again.Categories[0] != "Food" {
		t.Fatalf("snapshot shares memory with the store")
	}
}
