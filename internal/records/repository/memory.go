package repository

import (
	"context"
	"sync"

	"address_lookup_backend/platform/apperr"
)

// Memory is an in-process record store for development and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	objectType string
	fields     map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]memoryRecord)}
}

// Put creates or replaces a record.
func (m *Memory) Put(recordID, objectType string, fields map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	m.records[recordID] = memoryRecord{objectType: objectType, fields: copied}
}

// Fields returns a copy of every field on a record.
func (m *Memory) Fields(recordID string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[recordID]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(rec.fields))
	for k, v := range rec.fields {
		out[k] = v
	}
	return out, true
}

// FetchFields returns the requested fields that the record carries.
func (m *Memory) FetchFields(_ context.Context, recordID string, fields []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[recordID]
	if !ok {
		return nil, apperr.NotFound(recordNotFoundMessage)
	}

	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := rec.fields[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// UpdateFields merges values into an existing record.
func (m *Memory) UpdateFields(_ context.Context, recordID string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[recordID]
	if !ok {
		return apperr.NotFound(recordNotFoundMessage)
	}
	for k, v := range fields {
		rec.fields[k] = v
	}
	return nil
}
