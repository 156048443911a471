// Package records provides the host record store bounded context.
// This file selects and wires the configured backend.
package records

import (
	"context"
	"fmt"

	"address_lookup_backend/internal/records/repository"
	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/db"
	"address_lookup_backend/platform/logger"
	"address_lookup_backend/platform/redisclient"
)

// Compile-time checks that every backend implements Store.
var (
	_ Store = (*repository.Memory)(nil)
	_ Store = (*repository.Postgres)(nil)
	_ Store = (*repository.Redis)(nil)
)

// Module owns the record store and the connections behind it.
type Module struct {
	store   Store
	backend string
	ping    func(ctx context.Context) error
	close   func()
	memory  *repository.Memory
}

// NewModule opens the configured backend. Postgres runs pending migrations
// before serving.
func NewModule(ctx context.Context, cfg config.RecordStoreConfig, log *logger.Logger) (*Module, error) {
	backend := cfg.GetRecordStoreBackend()
	m := &Module{
		backend: backend,
		ping:    func(context.Context) error { return nil },
		close:   func() {},
	}

	switch backend {
	case config.RecordStorePostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect record database: %w", err)
		}
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate record database: %w", err)
		}
		m.store = repository.NewPostgres(pool)
		m.ping = pool.Ping
		m.close = pool.Close
	case config.RecordStoreRedis:
		client, err := redisclient.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("open record redis: %w", err)
		}
		m.store = repository.NewRedis(client, cfg.GetRecordKeyPrefix())
		m.ping = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		m.close = func() { _ = client.Close() }
	case config.RecordStoreMemory, "":
		m.memory = repository.NewMemory()
		m.store = m.memory
	default:
		return nil, fmt.Errorf("unsupported record store backend %q", backend)
	}

	log.Info("records module initialized", "backend", m.Backend())
	return m, nil
}

// Store returns the record store for use by other modules.
func (m *Module) Store() Store {
	return m.store
}

// Backend reports the active backend name.
func (m *Module) Backend() string {
	if m.backend == "" {
		return config.RecordStoreMemory
	}
	return m.backend
}

// Memory returns the in-memory store when that backend is active, so the
// composition root can seed development records. Nil otherwise.
func (m *Module) Memory() *repository.Memory {
	return m.memory
}

// Ping checks the backend connection.
func (m *Module) Ping(ctx context.Context) error {
	return m.ping(ctx)
}

// Close releases backend connections.
func (m *Module) Close() {
	m.close()
}
