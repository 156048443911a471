package transport

import (
	"encoding/json"

	"address_lookup_backend/internal/addresslookup/service"
	"address_lookup_backend/internal/widgets"

	"github.com/google/uuid"
)

// Request DTOs

type OpenSessionRequest struct {
	Widget   string `json:"widget" validate:"required,notblank"`
	RecordID string `json:"recordId" validate:"required,notblank,max=255"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type SelectRequest struct {
	CandidateID string `json:"candidateId" validate:"max=255"`
}

type SetFieldRequest struct {
	Value string `json:"value" validate:"max=255"`
}

// Response DTOs

type SessionResponse struct {
	SessionID  uuid.UUID     `json:"sessionId"`
	Widget     string        `json:"widget"`
	RecordID   string        `json:"recordId"`
	ObjectType string        `json:"objectType"`
	Title      string        `json:"title"`
	State      StateResponse `json:"state"`
}

type StateResponse struct {
	Query        string                  `json:"query"`
	Options      []service.Option        `json:"options"`
	SelectedID   string                  `json:"selectedId"`
	Address      service.ResolvedAddress `json:"address"`
	ErrorMessage string                  `json:"errorMessage"`
	Loading      bool                    `json:"loading"`
	Resolved     json.RawMessage         `json:"resolved,omitempty"`
}

type SaveResponse struct {
	Status        string            `json:"status"`
	FieldUpdates  map[string]string `json:"fieldUpdates"`
	InvalidFields []string          `json:"invalidFields,omitempty"`
	Detail        string            `json:"detail,omitempty"`
	State         StateResponse     `json:"state"`
}

type WidgetResponse struct {
	Name       string                   `json:"name"`
	ObjectType string                   `json:"objectType"`
	Title      string                   `json:"title"`
	Fields     map[string]widgets.Field `json:"fields"`
}

type WidgetListResponse struct {
	Items []WidgetResponse `json:"items"`
}

// Mappers

func ToStateResponse(s service.State) StateResponse {
	return StateResponse{
		Query:        s.Query,
		Options:      s.Options(),
		SelectedID:   s.SelectedID,
		Address:      s.Address,
		ErrorMessage: s.ErrorMessage,
		Loading:      s.Loading,
		Resolved:     s.Resolved,
	}
}

func ToSessionResponse(sess service.Session) SessionResponse {
	cfg := sess.Controller.Config()
	return SessionResponse{
		SessionID:  sess.Controller.ID(),
		Widget:     sess.Widget,
		RecordID:   cfg.RecordID,
		ObjectType: cfg.ObjectType,
		Title:      cfg.Title,
		State:      ToStateResponse(sess.Controller.Snapshot()),
	}
}

func ToSaveResponse(state service.State, result service.SaveResult) SaveResponse {
	updates := result.FieldUpdates
	if updates == nil {
		updates = map[string]string{}
	}
	return SaveResponse{
		Status:        result.Status.String(),
		FieldUpdates:  updates,
		InvalidFields: result.InvalidFields,
		Detail:        result.Detail,
		State:         ToStateResponse(state),
	}
}

func ToWidgetResponse(def widgets.Definition) WidgetResponse {
	fields := def.Fields
	if fields == nil {
		fields = map[string]widgets.Field{}
	}
	return WidgetResponse{
		Name:       def.Name,
		ObjectType: def.ObjectType,
		Title:      def.Title,
		Fields:     fields,
	}
}
