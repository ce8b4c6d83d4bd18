package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"saldo/internal/amqp"
	"saldo/internal/backend/memory"
	"saldo/internal/core"
	"saldo/internal/log"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.RecordEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestJournalingBackendPublishesConfirmedWrites(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	j := NewJournalingBackend(memory.New(), pub, log.Discard())

	e, err := j.InsertExpense(ctx, core.Expense{
		Owner: "u1", Description: "Groceries", Amount: core.Money{Cents: 5000},
		Category: "Food", Date: core.NewDate(2024, 1, 5),
	})
	if err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}
	f, err := j.InsertFixedExpense(ctx, core.FixedExpense{Owner: "u1", Task: "Rent", Amount: core.Money{Cents: 80000}})
	if err != nil {
		t.Fatalf("InsertFixedExpense: %v", err)
	}
	if _, err := j.UpdateFixedExpenseCompleted(ctx, "u1", f.ID, true); err != nil {
		t.Fatalf("UpdateFixedExpenseCompleted: %v", err)
	}
	if _, err := j.UpsertProfile(ctx, core.Profile{Owner: "u1", Salary: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if err := j.InsertCategory(ctx, "u1", "Pets"); err != nil {
		t.Fatalf("InsertCategory: %v", err)
	}
	if err := j.DeleteExpense(ctx, "u1", e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := j.DeleteFixedExpense(ctx, "u1", f.ID); err != nil {
		t.Fatalf("DeleteFixedExpense: %v", err)
	}

	want := []amqp.EventType{
		amqp.ExpenseCreated, amqp.FixedCreated, amqp.FixedUpdated,
		amqp.SalaryUpdated, amqp.CategoryAdded, amqp.ExpenseDeleted, amqp.FixedDeleted,
	}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if pub.events[0].RecordID != e.ID {
		t.Errorf("expense event carries record id %q, want %q", pub.events[0].RecordID, e.ID)
	}
}

func TestJournalingBackendSkipsFailedWrites(t *testing.T) {
	pub := &recordingPublisher{}
	j := NewJournalingBackend(memory.New(), pub, log.Discard())

	_, err := j.InsertExpense(context.Background(), core.Expense{Owner: "u1"})
	if err == nil {
		t.Fatal("expected validation error from the backend")
	}
	if _, err := j.UpdateFixedExpenseCompleted(context.Background(), "u1", "missing", true); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.types()) != 0 {
		t.Fatalf("failed writes must not publish, got %v", pub.types())
	}
}

func TestJournalingBackendPublishFailureIsNotAWriteFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	j := NewJournalingBackend(memory.New(), pub, log.Discard())

	if err := j.InsertCategory(context.Background(), "u1", "Pets"); err != nil {
		t.Fatalf("InsertCategory should succeed despite publish failure, got %v", err)
	}
	cats, _ := j.ListCategories(context.Background(), "u1")
	if len(cats) != 1 {
		t.Fatalf("write was not applied: %v", cats)
	}
}

func TestJournalingBackendWithoutPublisher(t *testing.T) {
	j := NewJournalingBackend(memory.New(), nil, log.Discard())
	if err := j.InsertCategory(context.Background(), "u1", "Pets"); err != nil {
		t.Fatalf("InsertCategory: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestJournalingBackendClose(t *testing.T) {
	pub := &recordingPublisher{}
	j := NewJournalingBackend(memory.New(), pub, log.Discard())
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatal("publisher was not closed")
	}
}
