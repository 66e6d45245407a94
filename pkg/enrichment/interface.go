// Package enrichment defines the abstraction used to submit batches of
// domains to a third-party intelligence provider and retrieve the records
// that relate identities to those domains.
package enrichment

import (
	"context"
	"enricher/pkg/domain"
)

// Client is the abstraction for enrichment providers. Implementations must be
// safe for concurrent use.
//
//go:generate mockgen -package mockenrichment -source=interface.go -destination=mock/mockenrichment.go *
type Client interface {
	// Lookup submits the given canonical domains in a single request and
	// returns the parsed response records. Any non-nil error means the
	// attempt failed and may be retried by the caller.
	Lookup(ctx context.Context, domains []string) ([]domain.Record, error)
}
