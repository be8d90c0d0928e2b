package registry

import (
	"context"

	"github.com/anushankari123/docuchain/internal/digest"
)

// Ledger is the transactional store behind the registry. Every method is a
// single atomic operation: it either fully applies together with its counter
// update, or leaves no trace. Atomicity and ordering come from the backend,
// not from this package.
type Ledger interface {
	// PutIfAbsent stores rec under rec.Key and bumps the issued counter.
	// The ledger assigns IssuedAt. Returns ErrAlreadyIssued when the key
	// has ever been used.
	PutIfAbsent(ctx context.Context, rec Record) (Record, error)

	// Get reads the record for key. The second result is false when the
	// key was never issued.
	Get(ctx context.Context, key digest.Key) (Record, bool, error)

	// Deactivate flips Active to false and bumps the revoked counter,
	// provided the record exists, is still active, and is owned by caller.
	// Returns ErrNotFound, ErrAlreadyRevoked, or ErrNotAuthorized otherwise.
	Deactivate(ctx context.Context, key digest.Key, caller string) (Record, error)

	// Counters returns the global issue/revoke totals.
	Counters(ctx context.Context) (Stats, error)
}
