package registry

import (
	"context"
	"sync"
	"time"

	"github.com/anushankari123/docuchain/internal/digest"
)

// MemoryLedger is an in-process Ledger used by tests and the "memory"
// backend mode. A single mutex stands in for the blockchain's transaction
// serialization.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[digest.Key]Record
	issued  uint64
	revoked uint64

	now func() time.Time
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[digest.Key]Record),
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source. Test hook.
func (l *MemoryLedger) SetClock(now func() time.Time) {
	l.now = now
}

func (l *MemoryLedger) PutIfAbsent(_ context.Context, rec Record) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[rec.Key]; exists {
		return Record{}, ErrAlreadyIssued
	}

	rec.Active = true
	rec.IssuedAt = l.now().Unix()
	l.records[rec.Key] = rec
	l.issued++
	return rec, nil
}

func (l *MemoryLedger) Get(_ context.Context, key digest.Key) (Record, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[key]
	return rec, ok, nil
}

func (l *MemoryLedger) Deactivate(_ context.Context, key digest.Key, caller string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !rec.Active {
		return Record{}, ErrAlreadyRevoked
	}
	if rec.Owner != caller {
		return Record{}, ErrNotAuthorized
	}

	rec.Active = false
	l.records[key] = rec
	l.revoked++
	return rec, nil
}

func (l *MemoryLedger) Counters(_ context.Context) (Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Stats{TotalIssued: l.issued, TotalRevoked: l.revoked}, nil
}
