package notify

import (
	"context"
	"fmt"

	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultConcurrency = 5

// Sink receives relayed outcomes on the consuming side.
type Sink interface {
	SaveRequested(ctx context.Context, payload SaveRequestedPayload) error
	RecordChanged(ctx context.Context, payload RecordChangedPayload) error
	SelectionResolved(ctx context.Context, payload SelectionResolvedPayload) error
	ValidationFailed(ctx context.Context, payload ValidationFailedPayload) error
	SaveSucceeded(ctx context.Context, payload SaveSucceededPayload) error
	SaveFailed(ctx context.Context, payload SaveFailedPayload) error
}

// LogSink logs every relayed outcome.
type LogSink struct {
	Log *logger.Logger
}

func (s LogSink) SaveRequested(_ context.Context, p SaveRequestedPayload) error {
	s.Log.Info("save requested", "recordId", p.RecordID, "objectType", p.ObjectType, "fields", len(p.FieldUpdates), "sessionId", p.SessionID)
	return nil
}

func (s LogSink) RecordChanged(_ context.Context, p RecordChangedPayload) error {
	s.Log.Info("record changed", "recordId", p.RecordID, "objectType", p.ObjectType)
	return nil
}

func (s LogSink) SelectionResolved(_ context.Context, p SelectionResolvedPayload) error {
	s.Log.Info("selection resolved", "recordId", p.RecordID, "candidateId", p.CandidateID, "payloadBytes", len(p.Resolved), "sessionId", p.SessionID)
	return nil
}

func (s LogSink) ValidationFailed(_ context.Context, p ValidationFailedPayload) error {
	s.Log.Warn("validation failed", "recordId", p.RecordID, "fields", p.Fields, "sessionId", p.SessionID)
	return nil
}

func (s LogSink) SaveSucceeded(_ context.Context, p SaveSucceededPayload) error {
	s.Log.Info("save succeeded", "recordId", p.RecordID, "fields", len(p.FieldUpdates), "sessionId", p.SessionID)
	return nil
}

func (s LogSink) SaveFailed(_ context.Context, p SaveFailedPayload) error {
	s.Log.Warn("save failed", "recordId", p.RecordID, "detail", p.Message, "sessionId", p.SessionID)
	return nil
}

// Worker consumes relay tasks from the queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sink   Sink
	log    *logger.Logger
}

func NewWorker(cfg config.NotifyConfig, sink Sink, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetNotifyConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		sink:   sink,
		log:    log,
	}
	w.mux.HandleFunc(TaskSaveRequested, w.handleSaveRequested)
	w.mux.HandleFunc(TaskRecordChanged, w.handleRecordChanged)
	w.mux.HandleFunc(TaskSelectionResolved, w.handleSelectionResolved)
	w.mux.HandleFunc(TaskValidationFailed, w.handleValidationFailed)
	w.mux.HandleFunc(TaskSaveSucceeded, w.handleSaveSucceeded)
	w.mux.HandleFunc(TaskSaveFailed, w.handleSaveFailed)

	return w, nil
}

// Run blocks processing tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start relay worker: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleSaveRequested(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSaveRequestedPayload(task)
	if err != nil {
		return w.skip(task, err)
	}
	return w.sink.SaveRequested(ctx, payload)
}

func (w *Worker) handleRecordChanged(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRecordChangedPayload(task)
	if err != nil {
		return w.skip(task, err)
	}
	return w.sink.RecordChanged(ctx, payload)
}

func (w *Worker) handleSelectionResolved(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSelectionResolvedPayload(task)
	if err != nil {
		return w.skip(task, err)
	}
	return w.sink.SelectionResolved(ctx, payload)
}

func (w *Worker) handleValidationFailed(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseValidationFailedPayload(task)
	if err != nil {
		return w.skip(task, err)
	}
	return w.sink.ValidationFailed(ctx, payload)
}

func (w *Worker) handleSaveSucceeded(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSaveSucceededPayload(task)
	if err != nil {
		return w.skip(task, err)
	}
	return w.sink.SaveSucceeded(ctx, payload)
}

func (w *Worker) handleSaveFailed(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSaveFailedPayload(task)
	if err != nil {
		return w.skip(task, err)
	}
	return w.sink.SaveFailed(ctx, payload)
}

// skip marks an undecodable task as not retryable.
func (w *Worker) skip(task *asynq.Task, err error) error {
	w.log.Error("invalid relay payload", "task", task.Type(), "error", err)
	return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
}
