package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"saldo/internal/core"
)

func TestExpensesScopedByOwner(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.InsertExpense(ctx, core.Expense{
		Owner: "u1", Description: "Coffee", Amount: core.Money{Cents: 250},
		Category: "Food", Date: core.NewDate(2024, 1, 2),
	})
	if err != nil || a.ID == "" {
		t.Fatalf("unexpected insert: %+v err=%v", a, err)
	}
	if _, err := s.InsertExpense(ctx, core.Expense{
		Owner: "u2", Description: "Train", Amount: core.Money{Cents: 900},
		Category: "Transport", Date: core.NewDate(2024, 1, 3),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, _ := s.ListExpenses(ctx, "u1")
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("unexpected list for u1: %+v", got)
	}

	// Another owner cannot delete the row.
	if err := s.DeleteExpense(ctx, "u2", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.ListExpenses(ctx, "u1"); len(got) != 1 {
		t.Fatalf("row deleted across owners")
	}
	if err := s.DeleteExpense(ctx, "u1", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, "u1", a.ID); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if got, _ := s.ListExpenses(ctx, "u1"); len(got) != 0 {
		t.Fatalf("expected no rows, got %+v", got)
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.InsertExpense(context.Background(), core.Expense{Owner: "u1", Description: "x", Category: "Food", Date: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestFixedExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	f, err := s.InsertFixedExpense(ctx, core.FixedExpense{Owner: "u1", Task: "Rent", Amount: core.Money{Cents: 80000}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	upd, err := s.UpdateFixedExpenseCompleted(ctx, "u1", f.ID, true)
	if err != nil || !upd.Completed {
		t.Fatalf("unexpected update: %+v err=%v", upd, err)
	}
	if _, err := s.UpdateFixedExpenseCompleted(ctx, "u1", "missing", true); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteFixedExpense(ctx, "u1", f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.ListFixedExpenses(ctx, "u1"); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestProfileAndUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpsertProfile(ctx, core.Profile{Owner: "u1", Salary: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p, _ := s.GetProfile(ctx, "u1"); p.Salary.Cents != 100 {
		t.Fatalf("unexpected profile %+v", p)
	}

	if _, err := s.InsertUser(ctx, core.User{Email: "a@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := s.InsertUser(ctx, core.User{Email: "A@example.com", PasswordHash: "h"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if u, err := s.FindUserByEmail(ctx, "a@EXAMPLE.com"); err != nil || u.ID == "" {
		t.Fatalf("unexpected find: %+v err=%v", u, err)
	}
}

func TestNewFromFilesSeedsCategories(t *testing.T) {
	dir := t.TempDir()
	if cats, _ := NewFromFiles(dir).ListCategories(context.Background(), "u1"); len(cats) != 0 {
		t.Fatalf("expected no seeds when file missing, got %v", cats)
	}

	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("# header\nPets\nGifts\nPets\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewFromFiles(dir)
	ctx := context.Background()
	if err := s.InsertCategory(ctx, "u1", "Travel"); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	if err := s.InsertCategory(ctx, "u1", "Travel"); err != nil {
		t.Fatalf("duplicate insert should be a no-op, got %v", err)
	}
	cats, _ := s.ListCategories(ctx, "u1")
	want := []string{"Pets", "Gifts", "Travel"}
	if len(cats) != len(want) {
		t.Fatalf("unexpected categories: %v", cats)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Fatalf("unexpected categories: %v", cats)
		}
	}
}
