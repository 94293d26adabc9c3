package match

import (
	"context"
	"fmt"
	"iter"

	appErr "wetime-service/pkg/errors"
)

// Store is tenant-partitioned storage of waiting tickets. At most one ticket
// exists per (tenant, participant).
type Store interface {
	// Upsert inserts the ticket or fully replaces the participant's prior one.
	Upsert(ctx context.Context, t Ticket) error

	// Scan lazily yields the tenant's tickets ordered by JoinedAt, ties broken
	// by ParticipantID. Iteration stops after the first error is yielded.
	// Tickets deleted by another caller during the scan may be skipped but are
	// never yielded after their deletion was observed.
	Scan(ctx context.Context, tenantID string) iter.Seq2[Ticket, error]

	// Remove deletes the ticket if present and reports whether it existed.
	Remove(ctx context.Context, tenantID, participantID string) (bool, error)

	// ConsumePair atomically deletes the partner's ticket, provided it still
	// exists, together with any ticket held by the requester. It returns false
	// and changes nothing when the partner ticket is already gone.
	ConsumePair(ctx context.Context, tenantID, partnerID, requesterID string) (bool, error)

	Lookup(ctx context.Context, tenantID, participantID string) (Ticket, bool, error)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", appErr.ErrStorageUnavailable, op, err)
}
