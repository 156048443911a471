// Package addresslookup provides the address lookup bounded context module.
// This file wires the session service, handler and route registration.
package addresslookup

import (
	"context"
	"time"

	"address_lookup_backend/internal/addresslookup/handler"
	"address_lookup_backend/internal/addresslookup/service"
	"address_lookup_backend/internal/events"
	apphttp "address_lookup_backend/internal/http"
	"address_lookup_backend/internal/lookup"
	"address_lookup_backend/internal/records"
	"address_lookup_backend/internal/telemetry"
	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/logger"
	"address_lookup_backend/platform/validator"
)

// Module is the address lookup bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	sessions *service.Sessions
	ttl      time.Duration
}

// NewModule creates the address lookup module. recorder may be nil.
func NewModule(
	cfg config.SessionConfig,
	src service.WidgetSource,
	lookupSvc lookup.Service,
	store records.Store,
	bus events.Publisher,
	val *validator.Validator,
	recorder service.Recorder,
	log *logger.Logger,
) *Module {
	sessions := service.NewSessions(cfg.GetSessionTTL())
	svc := service.NewService(src, sessions, service.Deps{
		Lookup:    lookupSvc,
		Store:     store,
		Validator: val,
		Publisher: bus,
		Recorder:  recorder,
		Logger:    log,
	}, cfg.GetAllowStaleResponses(), log)

	return &Module{
		handler:  handler.New(svc, val),
		service:  svc,
		sessions: sessions,
		ttl:      cfg.GetSessionTTL(),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "address-lookup"
}

// Service returns the session service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// OpenSessions reports the number of registered sessions.
func (m *Module) OpenSessions() int {
	return m.sessions.Len()
}

// RunJanitor prunes idle sessions until ctx is done.
func (m *Module) RunJanitor(ctx context.Context) {
	interval := m.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	m.service.RunJanitor(ctx, interval)
}

// RegisterRoutes mounts address lookup routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Limited("/address-lookup"))
}

// Compile-time checks
var (
	_ apphttp.Module   = (*Module)(nil)
	_ service.Recorder = (*telemetry.LookupMetrics)(nil)
)
