// Package notify relays address lookup outcomes to external orchestrators
// as asynq tasks, and provides a worker that consumes them.
package notify

import (
	"context"
	"errors"
	"fmt"

	"address_lookup_backend/internal/events"
	"address_lookup_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Enqueuer submits tasks. Implemented by Client.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task) error
}

// Relay turns bus events into queued tasks.
type Relay struct {
	queue Enqueuer
	log   *logger.Logger
}

func NewRelay(queue Enqueuer, log *logger.Logger) *Relay {
	return &Relay{queue: queue, log: log}
}

// RegisterHandlers subscribes the relay to the events it forwards.
func (r *Relay) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SaveRequested{}.EventName(), events.HandlerFunc(r.handleSaveRequested))
	bus.Subscribe(events.RecordChanged{}.EventName(), events.HandlerFunc(r.handleRecordChanged))
	bus.Subscribe(events.SelectionResolved{}.EventName(), events.HandlerFunc(r.handleSelectionResolved))
	bus.Subscribe(events.ValidationFailed{}.EventName(), events.HandlerFunc(r.handleValidationFailed))
	bus.Subscribe(events.SaveSucceeded{}.EventName(), events.HandlerFunc(r.handleSaveSucceeded))
	bus.Subscribe(events.SaveFailed{}.EventName(), events.HandlerFunc(r.handleSaveFailed))
}

func (r *Relay) handleSaveRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SaveRequested)
	if !ok {
		return nil
	}

	task, err := NewSaveRequestedTask(SaveRequestedPayload{
		EventID:      e.EventID().String(),
		SessionID:    e.SessionID.String(),
		RecordID:     e.RecordID,
		ObjectType:   e.ObjectType,
		FieldUpdates: e.FieldUpdates,
		RequestedAt:  e.OccurredAt().Unix(),
	}, asynq.TaskID(e.EventID().String()))
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskSaveRequested, err)
	}
	return r.enqueue(ctx, task, e.RecordID)
}

func (r *Relay) handleRecordChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RecordChanged)
	if !ok {
		return nil
	}

	task, err := NewRecordChangedTask(RecordChangedPayload{
		EventID:    e.EventID().String(),
		RecordID:   e.RecordID,
		ObjectType: e.ObjectType,
		ChangedAt:  e.OccurredAt().Unix(),
	}, asynq.TaskID(e.EventID().String()))
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskRecordChanged, err)
	}
	return r.enqueue(ctx, task, e.RecordID)
}

func (r *Relay) handleSelectionResolved(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SelectionResolved)
	if !ok {
		return nil
	}

	task, err := NewSelectionResolvedTask(SelectionResolvedPayload{
		EventID:     e.EventID().String(),
		SessionID:   e.SessionID.String(),
		RecordID:    e.RecordID,
		CandidateID: e.CandidateID,
		Label:       e.Candidate.Label,
		Resolved:    e.Resolved,
		ResolvedAt:  e.OccurredAt().Unix(),
	}, asynq.TaskID(e.EventID().String()))
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskSelectionResolved, err)
	}
	return r.enqueue(ctx, task, e.RecordID)
}

func (r *Relay) handleValidationFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ValidationFailed)
	if !ok {
		return nil
	}

	task, err := NewValidationFailedTask(ValidationFailedPayload{
		EventID:   e.EventID().String(),
		SessionID: e.SessionID.String(),
		RecordID:  e.RecordID,
		Fields:    e.Fields,
		Message:   e.Message,
		FailedAt:  e.OccurredAt().Unix(),
	}, asynq.TaskID(e.EventID().String()))
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskValidationFailed, err)
	}
	return r.enqueue(ctx, task, e.RecordID)
}

func (r *Relay) handleSaveSucceeded(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SaveSucceeded)
	if !ok {
		return nil
	}

	task, err := NewSaveSucceededTask(SaveSucceededPayload{
		EventID:      e.EventID().String(),
		SessionID:    e.SessionID.String(),
		RecordID:     e.RecordID,
		FieldUpdates: e.FieldUpdates,
		Message:      e.Message,
		SavedAt:      e.OccurredAt().Unix(),
	}, asynq.TaskID(e.EventID().String()))
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskSaveSucceeded, err)
	}
	return r.enqueue(ctx, task, e.RecordID)
}

func (r *Relay) handleSaveFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SaveFailed)
	if !ok {
		return nil
	}

	task, err := NewSaveFailedTask(SaveFailedPayload{
		EventID:   e.EventID().String(),
		SessionID: e.SessionID.String(),
		RecordID:  e.RecordID,
		Message:   e.Message,
		FailedAt:  e.OccurredAt().Unix(),
	}, asynq.TaskID(e.EventID().String()))
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskSaveFailed, err)
	}
	return r.enqueue(ctx, task, e.RecordID)
}

func (r *Relay) enqueue(ctx context.Context, task *asynq.Task, recordID string) error {
	err := r.queue.Enqueue(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// The event ID is the task ID, so a conflict means it is already queued.
		r.log.Debug("relay task already queued", "task", task.Type(), "recordId", recordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	r.log.Debug("relay task enqueued", "task", task.Type(), "recordId", recordID)
	return nil
}
