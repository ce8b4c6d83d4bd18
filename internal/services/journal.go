package services

import (
	"context"
	"errors"
	"fmt"

	"saldo/internal/amqp"
	"saldo/internal/backend"
	"saldo/internal/core"
	"saldo/internal/log"
)

// Publisher is the outbound side of the AMQP client.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.RecordEvent) error
}

// JournalingBackend decorates a backend so that every confirmed write is
// announced as a record event. A publish failure is logged and never turns a
// successful write into an error.
type JournalingBackend struct {
	backend.Backend
	publisher Publisher
	logger    *log.Logger
}

var _ backend.Backend = (*JournalingBackend)(nil)

// NewJournalingBackend wraps inner. A nil publisher disables events.
func NewJournalingBackend(inner backend.Backend, publisher Publisher, logger *log.Logger) *JournalingBackend {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &JournalingBackend{
		Backend:   inner,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentJournal),
	}
}

func (j *JournalingBackend) publish(ctx context.Context, ev *amqp.RecordEvent) {
	if j.publisher == nil {
		j.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event", log.FieldEventType, ev.Type)
		return
	}
	if err := j.publisher.Publish(ctx, ev); err != nil {
		j.logger.ErrorContext(ctx, "Failed to publish record event",
			log.FieldEventType, ev.Type,
			log.FieldOwner, ev.Owner,
			log.FieldRecordID, ev.RecordID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
}

func (j *JournalingBackend) UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	saved, err := j.Backend.UpsertProfile(ctx, p)
	if err != nil {
		return saved, err
	}
	j.publish(ctx, amqp.NewSalaryUpdated(saved))
	return saved, nil
}

func (j *JournalingBackend) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := j.Backend.InsertExpense(ctx, e)
	if err != nil {
		return created, err
	}
	j.publish(ctx, amqp.NewExpenseCreated(created))
	return created, nil
}

func (j *JournalingBackend) DeleteExpense(ctx context.Context, owner, id string) error {
	if err := j.Backend.DeleteExpense(ctx, owner, id); err != nil {
		return err
	}
	j.publish(ctx, amqp.NewExpenseDeleted(owner, id))
	return nil
}

func (j *JournalingBackend) InsertCategory(ctx context.Context, owner, name string) error {
	if err := j.Backend.InsertCategory(ctx, owner, name); err != nil {
		return err
	}
	j.publish(ctx, amqp.NewCategoryAdded(owner, name))
	return nil
}

func (j *JournalingBackend) InsertFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	created, err := j.Backend.InsertFixedExpense(ctx, f)
	if err != nil {
		return created, err
	}
	j.publish(ctx, amqp.NewFixedCreated(created))
	return created, nil
}

func (j *JournalingBackend) UpdateFixedExpenseCompleted(ctx context.Context, owner, id string, completed bool) (core.FixedExpense, error) {
	updated, err := j.Backend.UpdateFixedExpenseCompleted(ctx, owner, id, completed)
	if err != nil {
		return updated, err
	}
	j.publish(ctx, amqp.NewFixedUpdated(updated))
	return updated, nil
}

func (j *JournalingBackend) DeleteFixedExpense(ctx context.Context, owner, id string) error {
	if err := j.Backend.DeleteFixedExpense(ctx, owner, id); err != nil {
		return err
	}
	j.publish(ctx, amqp.NewFixedDeleted(owner, id))
	return nil
}

// Close releases the publisher and the wrapped backend, when they support it.
func (j *JournalingBackend) Close() error {
	var errs []error
	if c, ok := j.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if c, ok := j.Backend.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("backend: %w", err))
		}
	}
	return errors.Join(errs...)
}
