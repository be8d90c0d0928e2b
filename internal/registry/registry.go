// Package registry holds the certificate record lifecycle: a key is issued
// at most once, may later be revoked by its issuer, and stays queryable
// forever. The mutable state lives behind the Ledger port so tests run
// against an in-memory map while production talks to the blockchain.
package registry

import (
	"context"

	"github.com/anushankari123/docuchain/internal/digest"
)

// Record is one issued certificate as stored on the ledger.
type Record struct {
	Key            digest.Key `json:"key"`
	Active         bool       `json:"active"`
	Owner          string     `json:"owner"`
	IssuedAt       int64      `json:"issuedAt"` // unix seconds, assigned by the ledger
	StorageLocator string     `json:"storageLocator"`
}

// Stats are the registry-wide counters. Both only ever grow.
type Stats struct {
	TotalIssued  uint64 `json:"totalIssued"`
	TotalRevoked uint64 `json:"totalRevoked"`
}

// Active is the number of currently valid certificates.
func (s Stats) Active() uint64 {
	return s.TotalIssued - s.TotalRevoked
}

// Service is the registry as consumed by the transport layer. The caller
// argument on mutating operations is the issuer identity established by the
// transport's authentication context; it is never a client-supplied field.
type Service interface {
	// Issue records a new certificate for key. Fails with ErrAlreadyIssued
	// if the key was ever issued before, including after revocation.
	Issue(ctx context.Context, caller string, key digest.Key, locator string) (Record, error)

	// Verify returns the record for key. Unknown keys yield a zero-value
	// record with Active=false rather than an error.
	Verify(ctx context.Context, key digest.Key) (Record, error)

	// Revoke deactivates the record for key. Only the issuing owner may
	// revoke, and only once.
	Revoke(ctx context.Context, caller string, key digest.Key) (Record, error)

	// Statistics returns the global issue/revoke counters.
	Statistics(ctx context.Context) (Stats, error)

	// WasEverIssued distinguishes "never submitted" from "revoked".
	WasEverIssued(ctx context.Context, key digest.Key) (bool, error)
}

// EventType tags an outbound registry notification.
type EventType string

const (
	EventIssued  EventType = "issued"
	EventRevoked EventType = "revoked"
)

// Event is the fire-and-forget notification emitted after a successful
// mutation. Events are not retained or replayed.
type Event struct {
	Type           EventType
	Key            digest.Key
	Owner          string
	StorageLocator string
}
