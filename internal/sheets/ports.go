package sheets

import (
	"context"
	"time"

	"saldo/internal/core"
)

// JournalEntry is one audit row describing a confirmed record change.
type JournalEntry struct {
	Timestamp   time.Time
	Event       string
	Owner       string
	RecordID    string
	Description string
	Amount      core.Money
	Category    string
	Date        string
	// Completed is "", "true" or "false"; only fixed-expense rows carry it.
	Completed string
}

// Ports for outbound adapters.
type (
	JournalWriter interface {
		Append(ctx context.Context, e JournalEntry) (rowRef string, err error)
	}

	JournalReader interface {
		// ReadJournal returns the rows recorded for the given year, oldest first.
		ReadJournal(ctx context.Context, year int) ([]JournalEntry, error)
	}
)
