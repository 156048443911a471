// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"encoding/json"

	"address_lookup_backend/internal/lookup/transport"
	"address_lookup_backend/platform/events"
	"address_lookup_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Event names, shared by publishers and subscribers.
const (
	NameSelectionResolved = "address.selection.resolved"
	NameValidationFailed  = "address.validation.failed"
	NameSaveSucceeded     = "address.save.succeeded"
	NameSaveFailed        = "address.save.failed"
	NameSaveRequested     = "address.save.requested"
	NameRecordChanged     = "address.record.changed"
)

// =============================================================================
// Address Lookup Domain Events
// =============================================================================

// SelectionResolved is published when a chosen candidate resolves successfully.
type SelectionResolved struct {
	BaseEvent
	SessionID   uuid.UUID           `json:"sessionId"`
	RecordID    string              `json:"recordId"`
	CandidateID string              `json:"candidateId"`
	Candidate   transport.Candidate `json:"candidate"`
	Resolved    json.RawMessage     `json:"resolved,omitempty"`
}

func (e SelectionResolved) EventName() string { return NameSelectionResolved }

// ValidationFailed is published once per save attempt that fails field validation.
type ValidationFailed struct {
	BaseEvent
	SessionID uuid.UUID `json:"sessionId"`
	RecordID  string    `json:"recordId"`
	Fields    []string  `json:"fields"`
	Message   string    `json:"message"`
}

func (e ValidationFailed) EventName() string { return NameValidationFailed }

// SaveSucceeded is published after the record store accepts an update.
type SaveSucceeded struct {
	BaseEvent
	SessionID    uuid.UUID         `json:"sessionId"`
	RecordID     string            `json:"recordId"`
	FieldUpdates map[string]string `json:"fieldUpdates"`
	Message      string            `json:"message"`
}

func (e SaveSucceeded) EventName() string { return NameSaveSucceeded }

// SaveFailed is published when the record store rejects an update.
type SaveFailed struct {
	BaseEvent
	SessionID uuid.UUID `json:"sessionId"`
	RecordID  string    `json:"recordId"`
	Message   string    `json:"message"`
}

func (e SaveFailed) EventName() string { return NameSaveFailed }

// SaveRequested is published on every save that passes validation, whether or
// not any field was written.
type SaveRequested struct {
	BaseEvent
	SessionID    uuid.UUID         `json:"sessionId"`
	RecordID     string            `json:"recordId"`
	ObjectType   string            `json:"objectType"`
	FieldUpdates map[string]string `json:"fieldUpdates"`
}

func (e SaveRequested) EventName() string { return NameSaveRequested }

// RecordChanged is published when host record fields were rewritten, so
// views holding a copy can refresh.
type RecordChanged struct {
	BaseEvent
	RecordID   string `json:"recordId"`
	ObjectType string `json:"objectType"`
}

func (e RecordChanged) EventName() string { return NameRecordChanged }
