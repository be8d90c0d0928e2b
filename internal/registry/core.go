package registry

import (
	"context"
	"fmt"

	"github.com/anushankari123/docuchain/internal/digest"
)

// Core implements Service over a Ledger. It owns input validation and event
// emission; state rules (uniqueness, ownership, single revocation) are
// enforced by the ledger's atomic operations.
type Core struct {
	ledger         Ledger
	requireLocator bool
	observers      []func(Event)
}

// Option configures a Core.
type Option func(*Core)

// WithRequiredLocator makes Issue reject an empty storage locator.
// Deployments that pin documents externally should set this.
func WithRequiredLocator() Option {
	return func(c *Core) { c.requireLocator = true }
}

// NewCore builds a registry service over the given ledger.
func NewCore(ledger Ledger, opts ...Option) *Core {
	c := &Core{ledger: ledger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an observer for issue/revoke events. Observers are
// invoked synchronously after the mutation is durable; failures in an
// observer do not undo the mutation.
func (c *Core) Subscribe(fn func(Event)) {
	c.observers = append(c.observers, fn)
}

func (c *Core) notify(ev Event) {
	for _, fn := range c.observers {
		fn(ev)
	}
}

func (c *Core) Issue(ctx context.Context, caller string, key digest.Key, locator string) (Record, error) {
	if key.IsZero() {
		return Record{}, ErrInvalidKey
	}
	if caller == "" {
		return Record{}, fmt.Errorf("%w: caller identity is empty", ErrNotAuthorized)
	}
	if c.requireLocator && locator == "" {
		return Record{}, ErrInvalidLocator
	}

	rec, err := c.ledger.PutIfAbsent(ctx, Record{
		Key:            key,
		Owner:          caller,
		StorageLocator: locator,
	})
	if err != nil {
		return Record{}, err
	}

	c.notify(Event{Type: EventIssued, Key: rec.Key, Owner: rec.Owner, StorageLocator: rec.StorageLocator})
	return rec, nil
}

func (c *Core) Verify(ctx context.Context, key digest.Key) (Record, error) {
	rec, ok, err := c.ledger.Get(ctx, key)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		// Unknown keys report as "not a valid certificate", not an error.
		return Record{Key: key}, nil
	}
	return rec, nil
}

func (c *Core) Revoke(ctx context.Context, caller string, key digest.Key) (Record, error) {
	if key.IsZero() {
		return Record{}, ErrInvalidKey
	}

	rec, err := c.ledger.Deactivate(ctx, key, caller)
	if err != nil {
		return Record{}, err
	}

	c.notify(Event{Type: EventRevoked, Key: rec.Key, Owner: rec.Owner, StorageLocator: rec.StorageLocator})
	return rec, nil
}

func (c *Core) Statistics(ctx context.Context) (Stats, error) {
	return c.ledger.Counters(ctx)
}

func (c *Core) WasEverIssued(ctx context.Context, key digest.Key) (bool, error) {
	_, ok, err := c.ledger.Get(ctx, key)
	return ok, err
}
