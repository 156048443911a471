package notify

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSaveRequested = "address:save_requested"

const TaskRecordChanged = "address:record_changed"

type SaveRequestedPayload struct {
	EventID      string            `json:"eventId"`
	SessionID    string            `json:"sessionId"`
	RecordID     string            `json:"recordId"`
	ObjectType   string            `json:"objectType"`
	FieldUpdates map[string]string `json:"fieldUpdates"`
	RequestedAt  int64             `json:"requestedAt"`
}

type RecordChangedPayload struct {
	EventID    string `json:"eventId"`
	RecordID   string `json:"recordId"`
	ObjectType string `json:"objectType"`
	ChangedAt  int64  `json:"changedAt"`
}

func NewSaveRequestedTask(payload SaveRequestedPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSaveRequested, data, opts...), nil
}

func ParseSaveRequestedPayload(task *asynq.Task) (SaveRequestedPayload, error) {
	var payload SaveRequestedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SaveRequestedPayload{}, err
	}
	return payload, nil
}

func NewRecordChangedTask(payload RecordChangedPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecordChanged, data, opts...), nil
}

func ParseRecordChangedPayload(task *asynq.Task) (RecordChangedPayload, error) {
	var payload RecordChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecordChangedPayload{}, err
	}
	return payload, nil
}

const TaskSelectionResolved = "address:selection_resolved"

const TaskValidationFailed = "address:validation_failed"

const TaskSaveSucceeded = "address:save_succeeded"

const TaskSaveFailed = "address:save_failed"

type SelectionResolvedPayload struct {
	EventID     string          `json:"eventId"`
	SessionID   string          `json:"sessionId"`
	RecordID    string          `json:"recordId"`
	CandidateID string          `json:"candidateId"`
	Label       string          `json:"label"`
	Resolved    json.RawMessage `json:"resolved,omitempty"`
	ResolvedAt  int64           `json:"resolvedAt"`
}

type ValidationFailedPayload struct {
	EventID   string   `json:"eventId"`
	SessionID string   `json:"sessionId"`
	RecordID  string   `json:"recordId"`
	Fields    []string `json:"fields"`
	Message   string   `json:"message"`
	FailedAt  int64    `json:"failedAt"`
}

type SaveSucceededPayload struct {
	EventID      string            `json:"eventId"`
	SessionID    string            `json:"sessionId"`
	RecordID     string            `json:"recordId"`
	FieldUpdates map[string]string `json:"fieldUpdates"`
	Message      string            `json:"message"`
	SavedAt      int64             `json:"savedAt"`
}

// SaveFailedPayload carries the store-reported detail in Message.
type SaveFailedPayload struct {
	EventID   string `json:"eventId"`
	SessionID string `json:"sessionId"`
	RecordID  string `json:"recordId"`
	Message   string `json:"message"`
	FailedAt  int64  `json:"failedAt"`
}

func NewSelectionResolvedTask(payload SelectionResolvedPayload, opts ...asynq.Option) (*asynq.Task, error) {
	return newTask(TaskSelectionResolved, payload, opts...)
}

func ParseSelectionResolvedPayload(task *asynq.Task) (SelectionResolvedPayload, error) {
	var payload SelectionResolvedPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

func NewValidationFailedTask(payload ValidationFailedPayload, opts ...asynq.Option) (*asynq.Task, error) {
	return newTask(TaskValidationFailed, payload, opts...)
}

func ParseValidationFailedPayload(task *asynq.Task) (ValidationFailedPayload, error) {
	var payload ValidationFailedPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

func NewSaveSucceededTask(payload SaveSucceededPayload, opts ...asynq.Option) (*asynq.Task, error) {
	return newTask(TaskSaveSucceeded, payload, opts...)
}

func ParseSaveSucceededPayload(task *asynq.Task) (SaveSucceededPayload, error) {
	var payload SaveSucceededPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

func NewSaveFailedTask(payload SaveFailedPayload, opts ...asynq.Option) (*asynq.Task, error) {
	return newTask(TaskSaveFailed, payload, opts...)
}

func ParseSaveFailedPayload(task *asynq.Task) (SaveFailedPayload, error) {
	var payload SaveFailedPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

func newTask(typename string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, data, opts...), nil
}
