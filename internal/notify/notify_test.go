package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"address_lookup_backend/internal/events"
	"address_lookup_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, task *asynq.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type recordingSink struct {
	saves      []SaveRequestedPayload
	changes    []RecordChangedPayload
	selections []SelectionResolvedPayload
	invalid    []ValidationFailedPayload
	succeeded  []SaveSucceededPayload
	failed     []SaveFailedPayload
}

func (s *recordingSink) SaveRequested(_ context.Context, p SaveRequestedPayload) error {
	s.saves = append(s.saves, p)
	return nil
}

func (s *recordingSink) RecordChanged(_ context.Context, p RecordChangedPayload) error {
	s.changes = append(s.changes, p)
	return nil
}

func (s *recordingSink) SelectionResolved(_ context.Context, p SelectionResolvedPayload) error {
	s.selections = append(s.selections, p)
	return nil
}

func (s *recordingSink) ValidationFailed(_ context.Context, p ValidationFailedPayload) error {
	s.invalid = append(s.invalid, p)
	return nil
}

func (s *recordingSink) SaveSucceeded(_ context.Context, p SaveSucceededPayload) error {
	s.succeeded = append(s.succeeded, p)
	return nil
}

func (s *recordingSink) SaveFailed(_ context.Context, p SaveFailedPayload) error {
	s.failed = append(s.failed, p)
	return nil
}

func newRelayBus(enq Enqueuer) *events.InMemoryBus {
	log := logger.Discard()
	bus := events.NewInMemoryBus(log)
	NewRelay(enq, log).RegisterHandlers(bus)
	return bus
}

func TestRelayEnqueuesSaveRequested(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)
	sessionID := uuid.New()

	err := bus.PublishSync(context.Background(), events.SaveRequested{
		BaseEvent:    events.NewBaseEvent(),
		SessionID:    sessionID,
		RecordID:     "001",
		ObjectType:   "Account",
		FieldUpdates: map[string]string{"BillingCity": "London"},
	})
	if err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(enq.tasks) != 1 || enq.tasks[0].Type() != TaskSaveRequested {
		t.Fatalf("expected one save requested task, got %d", len(enq.tasks))
	}
	payload, err := ParseSaveRequestedPayload(enq.tasks[0])
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.SessionID != sessionID.String() || payload.RecordID != "001" || payload.FieldUpdates["BillingCity"] != "London" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.RequestedAt == 0 {
		t.Fatalf("expected event time to be carried")
	}
	if payload.EventID == "" {
		t.Fatalf("expected event id to be carried")
	}
}

func TestRelayEnqueuesRecordChanged(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)

	if err := bus.PublishSync(context.Background(), events.RecordChanged{BaseEvent: events.NewBaseEvent(), RecordID: "001", ObjectType: "Account"}); err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(enq.tasks) != 1 || enq.tasks[0].Type() != TaskRecordChanged {
		t.Fatalf("expected one record changed task, got %d", len(enq.tasks))
	}
}

type unrelatedEvent struct {
	events.BaseEvent
}

func (unrelatedEvent) EventName() string { return "address.unrelated" }

func TestRelayIgnoresOtherEvents(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)

	if err := bus.PublishSync(context.Background(), unrelatedEvent{BaseEvent: events.NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}
	if len(enq.tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(enq.tasks))
	}
}

func TestRelayEnqueuesSelectionResolvedWithRawPayload(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)
	raw := json.RawMessage(`{"postcode":"SW1A 1AA","line_1":"10 Downing Street"}`)

	err := bus.PublishSync(context.Background(), events.SelectionResolved{
		BaseEvent:   events.NewBaseEvent(),
		SessionID:   uuid.New(),
		RecordID:    "001",
		CandidateID: "abc",
		Resolved:    raw,
	})
	if err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(enq.tasks) != 1 || enq.tasks[0].Type() != TaskSelectionResolved {
		t.Fatalf("expected one selection resolved task, got %d", len(enq.tasks))
	}
	payload, err := ParseSelectionResolvedPayload(enq.tasks[0])
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.CandidateID != "abc" || string(payload.Resolved) != string(raw) {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestRelayEnqueuesValidationFailed(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)

	err := bus.PublishSync(context.Background(), events.ValidationFailed{
		BaseEvent: events.NewBaseEvent(),
		RecordID:  "001",
		Fields:    []string{"BillingPostalCode"},
		Message:   "Please complete the address.",
	})
	if err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(enq.tasks) != 1 || enq.tasks[0].Type() != TaskValidationFailed {
		t.Fatalf("expected one validation failed task, got %d", len(enq.tasks))
	}
	payload, err := ParseValidationFailedPayload(enq.tasks[0])
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if len(payload.Fields) != 1 || payload.Fields[0] != "BillingPostalCode" || payload.Message == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestRelayEnqueuesSaveSucceeded(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)

	err := bus.PublishSync(context.Background(), events.SaveSucceeded{
		BaseEvent:    events.NewBaseEvent(),
		RecordID:     "001",
		FieldUpdates: map[string]string{"BillingCity": "Leeds"},
		Message:      "Address saved.",
	})
	if err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(enq.tasks) != 1 || enq.tasks[0].Type() != TaskSaveSucceeded {
		t.Fatalf("expected one save succeeded task, got %d", len(enq.tasks))
	}
	payload, err := ParseSaveSucceededPayload(enq.tasks[0])
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.FieldUpdates["BillingCity"] != "Leeds" || payload.SavedAt == 0 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestRelayEnqueuesSaveFailedWithDetail(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)

	err := bus.PublishSync(context.Background(), events.SaveFailed{
		BaseEvent: events.NewBaseEvent(),
		RecordID:  "missing",
		Message:   "Failed to save address details: record not found",
	})
	if err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(enq.tasks) != 1 || enq.tasks[0].Type() != TaskSaveFailed {
		t.Fatalf("expected one save failed task, got %d", len(enq.tasks))
	}
	payload, err := ParseSaveFailedPayload(enq.tasks[0])
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.RecordID != "missing" || payload.Message != "Failed to save address details: record not found" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestRelayKeepsSaveOutcomeOrder(t *testing.T) {
	enq := &fakeEnqueuer{}
	bus := newRelayBus(enq)

	for i := 0; i < 20; i++ {
		bus.Publish(context.Background(),
			events.RecordChanged{BaseEvent: events.NewBaseEvent(), RecordID: "001"},
			events.SaveSucceeded{BaseEvent: events.NewBaseEvent(), RecordID: "001"},
			events.SaveRequested{BaseEvent: events.NewBaseEvent(), RecordID: "001"},
		)
		bus.Wait()
	}

	if len(enq.tasks) != 60 {
		t.Fatalf("expected 60 tasks, got %d", len(enq.tasks))
	}
	want := []string{TaskRecordChanged, TaskSaveSucceeded, TaskSaveRequested}
	for i, task := range enq.tasks {
		if task.Type() != want[i%3] {
			t.Fatalf("task %d: expected %s, got %s", i, want[i%3], task.Type())
		}
	}
}

func TestRelayReportsEnqueueFailure(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	bus := newRelayBus(enq)

	err := bus.PublishSync(context.Background(), events.RecordChanged{BaseEvent: events.NewBaseEvent(), RecordID: "001"})
	if err == nil {
		t.Fatalf("expected enqueue failure to surface")
	}
}

func TestRelayTreatsDuplicateTaskAsDelivered(t *testing.T) {
	enq := &fakeEnqueuer{err: fmt.Errorf("enqueue: %w", asynq.ErrTaskIDConflict)}
	bus := newRelayBus(enq)

	err := bus.PublishSync(context.Background(), events.RecordChanged{BaseEvent: events.NewBaseEvent(), RecordID: "001"})
	if err != nil {
		t.Fatalf("expected duplicate enqueue to be ignored, got %v", err)
	}
}

func TestWorkerHandlersDeliverToSink(t *testing.T) {
	sink := &recordingSink{}
	w := &Worker{sink: sink, log: logger.Discard()}

	task, err := NewSaveRequestedTask(SaveRequestedPayload{RecordID: "001", FieldUpdates: map[string]string{"City": "Leeds"}})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := w.handleSaveRequested(context.Background(), task); err != nil {
		t.Fatalf("handleSaveRequested returned error: %v", err)
	}
	changed, _ := NewRecordChangedTask(RecordChangedPayload{RecordID: "001"})
	if err := w.handleRecordChanged(context.Background(), changed); err != nil {
		t.Fatalf("handleRecordChanged returned error: %v", err)
	}

	if len(sink.saves) != 1 || sink.saves[0].FieldUpdates["City"] != "Leeds" || len(sink.changes) != 1 {
		t.Fatalf("unexpected sink contents %+v %+v", sink.saves, sink.changes)
	}
}

func TestWorkerDeliversOutcomeTasksToSink(t *testing.T) {
	sink := &recordingSink{}
	w := &Worker{sink: sink, log: logger.Discard()}
	ctx := context.Background()

	selected, _ := NewSelectionResolvedTask(SelectionResolvedPayload{RecordID: "001", Resolved: json.RawMessage(`{"a":1}`)})
	invalid, _ := NewValidationFailedTask(ValidationFailedPayload{RecordID: "001", Fields: []string{"City"}})
	succeeded, _ := NewSaveSucceededTask(SaveSucceededPayload{RecordID: "001"})
	failed, _ := NewSaveFailedTask(SaveFailedPayload{RecordID: "001", Message: "Failed to save address details: locked"})

	if err := w.handleSelectionResolved(ctx, selected); err != nil {
		t.Fatalf("handleSelectionResolved returned error: %v", err)
	}
	if err := w.handleValidationFailed(ctx, invalid); err != nil {
		t.Fatalf("handleValidationFailed returned error: %v", err)
	}
	if err := w.handleSaveSucceeded(ctx, succeeded); err != nil {
		t.Fatalf("handleSaveSucceeded returned error: %v", err)
	}
	if err := w.handleSaveFailed(ctx, failed); err != nil {
		t.Fatalf("handleSaveFailed returned error: %v", err)
	}

	if len(sink.selections) != 1 || string(sink.selections[0].Resolved) != `{"a":1}` {
		t.Fatalf("unexpected selections %+v", sink.selections)
	}
	if len(sink.invalid) != 1 || len(sink.succeeded) != 1 || len(sink.failed) != 1 {
		t.Fatalf("unexpected sink contents %+v %+v %+v", sink.invalid, sink.succeeded, sink.failed)
	}
	if sink.failed[0].Message != "Failed to save address details: locked" {
		t.Fatalf("expected failure detail, got %q", sink.failed[0].Message)
	}
}

func TestWorkerSkipsRetryOnMalformedPayload(t *testing.T) {
	w := &Worker{sink: &recordingSink{}, log: logger.Discard()}

	err := w.handleRecordChanged(context.Background(), asynq.NewTask(TaskRecordChanged, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	err = w.handleSaveFailed(context.Background(), asynq.NewTask(TaskSaveFailed, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for save failed, got %v", err)
	}
}
