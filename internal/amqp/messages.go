package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
)

type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseDeleted EventType = "expense.deleted"
	FixedCreated   EventType = "fixed.created"
	FixedUpdated   EventType = "fixed.updated"
	FixedDeleted   EventType = "fixed.deleted"
	SalaryUpdated  EventType = "salary.updated"
	CategoryAdded  EventType = "category.added"
)

func (t EventType) valid() bool {
	switch t {
	case ExpenseCreated, ExpenseDeleted, FixedCreated, FixedUpdated, FixedDeleted, SalaryUpdated, CategoryAdded:
		return true
	}
	return false
}

// RecordEvent announces a write the backend has confirmed. Description holds
// the expense description or the fixed-expense task.
type RecordEvent struct {
	EventID     string    `json:"event_id"`
	Type        EventType `json:"type"`
	Owner       string    `json:"owner"`
	RecordID    string    `json:"record_id,omitempty"`
	Description string    `json:"description,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Category    string    `json:"category,omitempty"`
	Date        string    `json:"date,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func newEvent(t EventType, owner string) *RecordEvent {
	return &RecordEvent{
		EventID:   uuid.NewString(),
		Type:      t,
		Owner:     owner,
		Timestamp: time.Now().UTC(),
	}
}

func NewExpenseCreated(e core.Expense) *RecordEvent {
	ev := newEvent(ExpenseCreated, e.Owner)
	ev.RecordID = e.ID
	ev.Description = e.Description
	ev.AmountCents = e.Amount.Cents
	ev.Category = e.Category
	ev.Date = e.Date.String()
	return ev
}

func NewExpenseDeleted(owner, id string) *RecordEvent {
	ev := newEvent(ExpenseDeleted, owner)
	ev.RecordID = id
	return ev
}

func NewFixedCreated(f core.FixedExpense) *RecordEvent {
	ev := fixedEvent(FixedCreated, f)
	return ev
}

func NewFixedUpdated(f core.FixedExpense) *RecordEvent {
	return fixedEvent(FixedUpdated, f)
}

func fixedEvent(t EventType, f core.FixedExpense) *RecordEvent {
	ev := newEvent(t, f.Owner)
	ev.RecordID = f.ID
	ev.Description = f.Task
	ev.AmountCents = f.Amount.Cents
	completed := f.Completed
	ev.Completed = &completed
	return ev
}

func NewFixedDeleted(owner, id string) *RecordEvent {
	ev := newEvent(FixedDeleted, owner)
	ev.RecordID = id
	return ev
}

func NewSalaryUpdated(p core.Profile) *RecordEvent {
	ev := newEvent(SalaryUpdated, p.Owner)
	ev.AmountCents = p.Salary.Cents
	return ev
}

func NewCategoryAdded(owner, name string) *RecordEvent {
	ev := newEvent(CategoryAdded, owner)
	ev.Category = name
	return ev
}

// Validate rejects events a consumer cannot act on.
func (m *RecordEvent) Validate() error {
	if !m.Type.valid() {
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if m.Owner == "" {
		return fmt.Errorf("event %s has no owner", m.EventID)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON decodes and validates a message body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
