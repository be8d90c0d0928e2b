package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anushankari123/docuchain/chaincode/docucert"
	"github.com/anushankari123/docuchain/internal/digest"
	"github.com/anushankari123/docuchain/internal/registry"
)

// contractInvoker is what Registry needs from the gateway contract.
// *client.Contract satisfies it; tests fake it.
type contractInvoker interface {
	SubmitTransaction(name string, args ...string) ([]byte, error)
	EvaluateTransaction(name string, args ...string) ([]byte, error)
}

// Registry implements registry.Service against the docucert chaincode.
//
// The effective owner of every issued certificate is the gateway signing
// identity, enforced on-chain; the caller argument carried from the HTTP
// layer does not override it.
type Registry struct {
	contract contractInvoker
}

// NewRegistry wraps a connected docucert contract.
func NewRegistry(contract contractInvoker) *Registry {
	return &Registry{contract: contract}
}

func (r *Registry) Issue(_ context.Context, _ string, key digest.Key, locator string) (registry.Record, error) {
	result, err := r.contract.SubmitTransaction("Issue", key.Hex(), locator)
	if err != nil {
		return registry.Record{}, mapChaincodeError(err)
	}
	return decodeRecord(result)
}

func (r *Registry) Verify(_ context.Context, key digest.Key) (registry.Record, error) {
	result, err := r.contract.EvaluateTransaction("Verify", key.Hex())
	if err != nil {
		return registry.Record{}, mapChaincodeError(err)
	}
	return decodeRecord(result)
}

func (r *Registry) Revoke(_ context.Context, _ string, key digest.Key) (registry.Record, error) {
	result, err := r.contract.SubmitTransaction("Revoke", key.Hex())
	if err != nil {
		return registry.Record{}, mapChaincodeError(err)
	}
	return decodeRecord(result)
}

func (r *Registry) Statistics(_ context.Context) (registry.Stats, error) {
	result, err := r.contract.EvaluateTransaction("Statistics")
	if err != nil {
		return registry.Stats{}, mapChaincodeError(err)
	}

	var stats docucert.Statistics
	if err := json.Unmarshal(result, &stats); err != nil {
		return registry.Stats{}, fmt.Errorf("failed to parse statistics: %w", err)
	}
	return registry.Stats{TotalIssued: stats.TotalIssued, TotalRevoked: stats.TotalRevoked}, nil
}

func (r *Registry) WasEverIssued(_ context.Context, key digest.Key) (bool, error) {
	result, err := r.contract.EvaluateTransaction("WasEverIssued", key.Hex())
	if err != nil {
		return false, mapChaincodeError(err)
	}
	return string(result) == "true", nil
}

func decodeRecord(payload []byte) (registry.Record, error) {
	var rec docucert.CertificateRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return registry.Record{}, fmt.Errorf("failed to parse certificate record: %w", err)
	}

	key, err := digest.ParseKey(rec.Key)
	if err != nil {
		return registry.Record{}, fmt.Errorf("chaincode returned malformed key %q: %w", rec.Key, err)
	}

	return registry.Record{
		Key:            key,
		Active:         rec.Active,
		Owner:          rec.Owner,
		IssuedAt:       rec.IssuedAt,
		StorageLocator: rec.StorageLocator,
	}, nil
}

// mapChaincodeError turns the stable error codes embedded in chaincode
// messages back into typed registry errors. Anything unrecognized is a
// transient backend failure the caller may retry.
func mapChaincodeError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, docucert.CodeInvalidKey):
		return fmt.Errorf("%w: %s", registry.ErrInvalidKey, msg)
	case strings.Contains(msg, docucert.CodeAlreadyIssued):
		return fmt.Errorf("%w: %s", registry.ErrAlreadyIssued, msg)
	case strings.Contains(msg, docucert.CodeNotFound):
		return fmt.Errorf("%w: %s", registry.ErrNotFound, msg)
	case strings.Contains(msg, docucert.CodeAlreadyRevoked):
		return fmt.Errorf("%w: %s", registry.ErrAlreadyRevoked, msg)
	case strings.Contains(msg, docucert.CodeNotAuthorized):
		return fmt.Errorf("%w: %s", registry.ErrNotAuthorized, msg)
	default:
		return fmt.Errorf("%w: %s", registry.ErrUnavailable, msg)
	}
}
