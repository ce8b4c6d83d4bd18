package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/sheets"
)

const (
	seenEventsSize = 10000
	seenEventsTTL  = 24 * time.Hour
)

// JournalWorker appends one journal row per record event. Redelivered events
// (same EventID) are written only once while they remain in the seen cache.
type JournalWorker struct {
	writer sheets.JournalWriter
	seen   *cache.LRUCache[string]
	logger *log.Logger
}

func NewJournalWorker(writer sheets.JournalWriter, logger *log.Logger) *JournalWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &JournalWorker{
		writer: writer,
		seen:   cache.NewLRUCache[string](seenEventsSize, seenEventsTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Seen exposes the dedupe cache so the process can register it for cleanup.
func (w *JournalWorker) Seen() cache.Cleaner {
	return w.seen
}

// HandleEvent is the AMQP consumer callback. A returned error makes the
// message go back to the queue.
func (w *JournalWorker) HandleEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	if _, dup := w.seen.Get(ev.EventID); dup {
		w.logger.DebugContext(ctx, "Skipping duplicate event", "event_id", ev.EventID)
		return nil
	}

	entry := EntryFromEvent(ev)
	ref, err := w.writer.Append(ctx, entry)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to append journal row",
			"event_id", ev.EventID,
			log.FieldEventType, ev.Type,
			log.FieldOwner, ev.Owner,
			log.FieldOperation, log.OpAppend,
			log.FieldError, err)
		return fmt.Errorf("append journal row: %w", err)
	}
	w.seen.Set(ev.EventID, ref)

	w.logger.InfoContext(ctx, "Journaled record event",
		"event_id", ev.EventID,
		log.FieldEventType, ev.Type,
		log.FieldOwner, ev.Owner,
		"sheets_ref", ref)
	return nil
}

// EntryFromEvent maps a record event to its journal row.
func EntryFromEvent(ev *amqp.RecordEvent) sheets.JournalEntry {
	e := sheets.JournalEntry{
		Timestamp:   ev.Timestamp,
		Event:       string(ev.Type),
		Owner:       ev.Owner,
		RecordID:    ev.RecordID,
		Description: ev.Description,
		Amount:      core.Money{Cents: ev.AmountCents},
		Category:    ev.Category,
		Date:        ev.Date,
	}
	if ev.Completed != nil {
		e.Completed = strconv.FormatBool(*ev.Completed)
	}
	return e
}
