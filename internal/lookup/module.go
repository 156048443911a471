// Package lookup provides the remote address lookup bounded context.
// This file defines the module that encapsulates the client setup.
package lookup

import (
	"address_lookup_backend/internal/lookup/client"
	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/logger"
)

// Module is the remote address lookup module.
type Module struct {
	client *client.Client
}

// NewModule creates the lookup client from configuration.
func NewModule(cfg config.LookupServiceConfig, log *logger.Logger) *Module {
	if cfg.GetLookupAPIKey() == "" {
		log.Warn("ADDRESS_LOOKUP_API_KEY not configured, provider calls will likely be rejected")
	}

	c := client.New(client.Options{
		BaseURL:           cfg.GetLookupBaseURL(),
		APIKey:            cfg.GetLookupAPIKey(),
		Timeout:           cfg.GetLookupTimeout(),
		RequestsPerSecond: cfg.GetLookupRequestsPerSecond(),
		Burst:             cfg.GetLookupBurst(),
	}, log)

	log.Info("lookup module initialized", "baseUrl", cfg.GetLookupBaseURL())

	return &Module{client: c}
}

// Service returns the lookup service for use by other modules.
func (m *Module) Service() Service {
	return m.client
}
