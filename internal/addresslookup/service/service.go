package service

import (
	"context"
	"strings"
	"time"

	"address_lookup_backend/internal/addresslookup/mapping"
	"address_lookup_backend/internal/widgets"
	"address_lookup_backend/platform/apperr"
	"address_lookup_backend/platform/logger"
	"address_lookup_backend/platform/sanitize"

	"github.com/google/uuid"
)

// WidgetSource resolves widget definitions by name.
type WidgetSource interface {
	Get(name string) (widgets.Definition, bool)
	List() []widgets.Definition
}

// Session is an open controller together with the widget it was built from.
type Session struct {
	Widget     string
	Controller *Controller
}

// Service opens and tracks address lookup sessions.
type Service struct {
	widgets    WidgetSource
	sessions   *Sessions
	deps       Deps
	allowStale bool
	log        *logger.Logger
}

// NewService creates the session service. deps are shared by every controller.
func NewService(src WidgetSource, sessions *Sessions, deps Deps, allowStale bool, log *logger.Logger) *Service {
	if deps.Logger == nil {
		deps.Logger = log
	}
	return &Service{
		widgets:    src,
		sessions:   sessions,
		deps:       deps,
		allowStale: allowStale,
		log:        log,
	}
}

// Open builds a controller for widget bound to recordID and registers it.
func (s *Service) Open(ctx context.Context, widget, recordID string) (Session, error) {
	widget = strings.TrimSpace(widget)
	recordID = strings.TrimSpace(recordID)

	def, ok := s.widgets.Get(widget)
	if !ok {
		return Session{}, apperr.NotFound("widget not found").WithOp("addresslookup.Open")
	}
	if recordID == "" {
		return Session{}, apperr.Validation("record id is required").WithOp("addresslookup.Open")
	}

	c, err := New(ctx, Config{
		RecordID:            recordID,
		ObjectType:          def.ObjectType,
		Title:               def.Title,
		Binding:             def.Binding(),
		Rules:               def.Rules(),
		AllowStaleResponses: s.allowStale,
	}, s.deps)
	if err != nil {
		return Session{}, err
	}

	s.sessions.Add(def.Name, c)
	s.log.Info("address lookup session opened", "sessionId", c.ID(), "widget", def.Name, "recordId", recordID)
	return Session{Widget: def.Name, Controller: c}, nil
}

// Get returns an open session.
func (s *Service) Get(id uuid.UUID) (Session, error) {
	c, widget, ok := s.sessions.Get(id)
	if !ok {
		return Session{}, apperr.NotFound("session not found")
	}
	return Session{Widget: widget, Controller: c}, nil
}

// Search runs a search on an open session.
func (s *Service) Search(ctx context.Context, id uuid.UUID, query string) (State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return State{}, err
	}
	return sess.Controller.TriggerSearch(ctx, query), nil
}

// Select resolves a candidate on an open session.
func (s *Service) Select(ctx context.Context, id uuid.UUID, candidateID string) (State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return State{}, err
	}
	return sess.Controller.SelectCandidate(ctx, candidateID), nil
}

// SetField applies a manual edit on an open session. The value is sanitized
// before it reaches the controller.
func (s *Service) SetField(id uuid.UUID, role, value string) (State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return State{}, err
	}
	r, err := mapping.ParseRole(role)
	if err != nil {
		return sess.Controller.Snapshot(), apperr.Validation(err.Error())
	}
	return sess.Controller.SetField(r, sanitize.Field(value))
}

// Save saves an open session.
func (s *Service) Save(ctx context.Context, id uuid.UUID) (State, SaveResult, error) {
	sess, err := s.Get(id)
	if err != nil {
		return State{}, SaveResult{}, err
	}
	state, result := sess.Controller.Save(ctx)
	return state, result, nil
}

// Close drops a session.
func (s *Service) Close(id uuid.UUID) error {
	if !s.sessions.Remove(id) {
		return apperr.NotFound("session not found")
	}
	return nil
}

// Widgets lists the configured widgets.
func (s *Service) Widgets() []widgets.Definition {
	return s.widgets.List()
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Prune(); n > 0 {
				s.log.Info("pruned idle address lookup sessions", "count", n)
			}
		}
	}
}
