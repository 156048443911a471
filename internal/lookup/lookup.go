// Package lookup provides the remote address lookup bounded context.
// This file defines the public interface exposed to other domains.
package lookup

import (
	"context"

	"address_lookup_backend/internal/lookup/client"
	"address_lookup_backend/internal/lookup/transport"
)

// Service is the remote address service used by the address lookup controller.
// Neither method returns a Go error: every outcome is carried by the Result.
type Service interface {
	// Search returns candidates for a free-text query, in the provider's ranking order.
	Search(ctx context.Context, query string) transport.Result[[]transport.Candidate]

	// Resolve returns the full address detail for a candidate ID.
	Resolve(ctx context.Context, id string) transport.Result[transport.AddressDetail]
}

var _ Service = (*client.Client)(nil)
