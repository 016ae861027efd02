// Package store persists visitors and commits resolution decisions.
//
// A commit is the only write path: it applies an optional visitor write,
// guarded by ResolutionVersion, together with exactly one provenance entry.
// Both implementations make the pair atomic.
package store

import (
	"context"

	"idgraph/internal/resolution/models"
)

// ProvenanceAppender records a decision. It returns sentinel.ErrAlreadyUsed
// when the tenant already has an entry for the source event.
type ProvenanceAppender interface {
	Append(ctx context.Context, entry models.ProvenanceEntry) error
}
