// Package records provides access to the host record store.
// This file defines the public interface exposed to other domains.
package records

import "context"

// Store reads and writes named fields of a host record. Implementations
// return apperr.NotFound when the record does not exist.
type Store interface {
	// FetchFields returns the values of the requested fields. Fields the
	// record does not carry are absent from the map; null values map to "".
	FetchFields(ctx context.Context, recordID string, fields []string) (map[string]string, error)

	// UpdateFields merges the given values into the record.
	UpdateFields(ctx context.Context, recordID string, fields map[string]string) error
}
