// Package docucert is the on-chain certificate registry. It stores one
// record per content hash, lets only the issuing identity revoke it, and
// keeps global issue/revoke counters in the same transaction as the
// mutation they belong to.
package docucert

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/anushankari123/docuchain/internal/digest"
)

// Error codes embedded in chaincode error messages. The gateway client
// maps these back to typed registry errors.
const (
	CodeInvalidKey     = "INVALID_KEY"
	CodeAlreadyIssued  = "ALREADY_ISSUED"
	CodeNotFound       = "NOT_FOUND"
	CodeAlreadyRevoked = "ALREADY_REVOKED"
	CodeNotAuthorized  = "NOT_AUTHORIZED"
)

// Event names emitted on successful mutations.
const (
	EventIssued  = "CertificateIssued"
	EventRevoked = "CertificateRevoked"
)

const (
	recordPrefix      = "cert:"
	issuedCounterKey  = "stats:issued"
	revokedCounterKey = "stats:revoked"
)

// Contract is the certificate registry smart contract.
type Contract struct {
	contractapi.Contract
}

// CertificateRecord is the on-chain representation of one certificate.
// Key is the 0x-prefixed hex content hash.
type CertificateRecord struct {
	Key            string `json:"key"`
	Active         bool   `json:"active"`
	Owner          string `json:"owner"`
	IssuedAt       int64  `json:"issuedAt"`
	StorageLocator string `json:"storageLocator"`
}

// Statistics are the registry-wide counters.
type Statistics struct {
	TotalIssued  uint64 `json:"totalIssued"`
	TotalRevoked uint64 `json:"totalRevoked"`
	ActiveCount  uint64 `json:"activeCount"`
}

// ledgerState is the slice of the chaincode stub the registry logic needs.
// Narrow so tests can fake it without shim mocks.
type ledgerState interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	SetEvent(name string, payload []byte) error
	GetTxTimestamp() (*timestamppb.Timestamp, error)
}

// caller is the subset of the client identity used for ownership.
type caller interface {
	GetID() (string, error)
	GetMSPID() (string, error)
}

// Issue records a new certificate for keyHex. The owner is the submitting
// client identity; the timestamp is the transaction timestamp, so every
// endorser computes the same record.
func (c *Contract) Issue(ctx contractapi.TransactionContextInterface, keyHex string, locator string) (*CertificateRecord, error) {
	owner, err := callerIdentity(ctx.GetClientIdentity())
	if err != nil {
		return nil, err
	}
	return issue(ctx.GetStub(), owner, keyHex, locator)
}

// Verify returns the record for keyHex. An unknown key yields a zero-value
// record with active=false rather than an error.
func (c *Contract) Verify(ctx contractapi.TransactionContextInterface, keyHex string) (*CertificateRecord, error) {
	return verify(ctx.GetStub(), keyHex)
}

// Revoke deactivates the record for keyHex. Only the identity that issued
// the certificate may revoke it, and only once. Historical fields are
// preserved for audit.
func (c *Contract) Revoke(ctx contractapi.TransactionContextInterface, keyHex string) (*CertificateRecord, error) {
	owner, err := callerIdentity(ctx.GetClientIdentity())
	if err != nil {
		return nil, err
	}
	return revoke(ctx.GetStub(), owner, keyHex)
}

// Statistics returns the global counters.
func (c *Contract) Statistics(ctx contractapi.TransactionContextInterface) (*Statistics, error) {
	return statistics(ctx.GetStub())
}

// WasEverIssued reports whether keyHex was ever issued, regardless of its
// current active state.
func (c *Contract) WasEverIssued(ctx contractapi.TransactionContextInterface, keyHex string) (bool, error) {
	key, err := digest.ParseKey(keyHex)
	if err != nil {
		return false, fmt.Errorf("%s: %v", CodeInvalidKey, err)
	}
	b, err := ctx.GetStub().GetState(recordPrefix + key.Hex())
	if err != nil {
		return false, fmt.Errorf("failed to read certificate: %w", err)
	}
	return b != nil, nil
}

func callerIdentity(id caller) (string, error) {
	mspID, err := id.GetMSPID()
	if err != nil {
		return "", fmt.Errorf("failed to get MSP ID: %w", err)
	}
	clientID, err := id.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client ID: %w", err)
	}
	return mspID + "/" + clientID, nil
}

func issue(state ledgerState, owner, keyHex, locator string) (*CertificateRecord, error) {
	key, err := digest.ParseKey(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", CodeInvalidKey, err)
	}
	if key.IsZero() {
		return nil, fmt.Errorf("%s: zero key", CodeInvalidKey)
	}

	stateKey := recordPrefix + key.Hex()
	existing, err := state.GetState(stateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	if existing != nil {
		// A key stays bound to its original record forever, including
		// after revocation.
		return nil, fmt.Errorf("%s: certificate %s already issued", CodeAlreadyIssued, key.Hex())
	}

	ts, err := state.GetTxTimestamp()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}

	rec := CertificateRecord{
		Key:            key.Hex(),
		Active:         true,
		Owner:          owner,
		IssuedAt:       ts.GetSeconds(),
		StorageLocator: locator,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certificate: %w", err)
	}

	if err := state.PutState(stateKey, payload); err != nil {
		return nil, fmt.Errorf("failed to store certificate: %w", err)
	}
	if err := bumpCounter(state, issuedCounterKey); err != nil {
		return nil, err
	}
	if err := state.SetEvent(EventIssued, payload); err != nil {
		return nil, fmt.Errorf("failed to emit event: %w", err)
	}
	return &rec, nil
}

func verify(state ledgerState, keyHex string) (*CertificateRecord, error) {
	key, err := digest.ParseKey(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", CodeInvalidKey, err)
	}

	b, err := state.GetState(recordPrefix + key.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	if b == nil {
		return &CertificateRecord{Key: key.Hex()}, nil
	}

	var rec CertificateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return &rec, nil
}

func revoke(state ledgerState, owner, keyHex string) (*CertificateRecord, error) {
	key, err := digest.ParseKey(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", CodeInvalidKey, err)
	}

	stateKey := recordPrefix + key.Hex()
	b, err := state.GetState(stateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("%s: certificate %s does not exist", CodeNotFound, key.Hex())
	}

	var rec CertificateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	if !rec.Active {
		return nil, fmt.Errorf("%s: certificate %s already revoked", CodeAlreadyRevoked, key.Hex())
	}
	if rec.Owner != owner {
		return nil, fmt.Errorf("%s: caller is not the owner of %s", CodeNotAuthorized, key.Hex())
	}

	rec.Active = false
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certificate: %w", err)
	}

	if err := state.PutState(stateKey, payload); err != nil {
		return nil, fmt.Errorf("failed to store certificate: %w", err)
	}
	if err := bumpCounter(state, revokedCounterKey); err != nil {
		return nil, err
	}
	if err := state.SetEvent(EventRevoked, payload); err != nil {
		return nil, fmt.Errorf("failed to emit event: %w", err)
	}
	return &rec, nil
}

func statistics(state ledgerState) (*Statistics, error) {
	issued, err := readCounter(state, issuedCounterKey)
	if err != nil {
		return nil, err
	}
	revoked, err := readCounter(state, revokedCounterKey)
	if err != nil {
		return nil, err
	}
	return &Statistics{
		TotalIssued:  issued,
		TotalRevoked: revoked,
		ActiveCount:  issued - revoked,
	}, nil
}

func readCounter(state ledgerState, key string) (uint64, error) {
	b, err := state.GetState(key)
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}
	if b == nil {
		return 0, nil
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter %s: %w", key, err)
	}
	return n, nil
}

func bumpCounter(state ledgerState, key string) error {
	n, err := readCounter(state, key)
	if err != nil {
		return err
	}
	if err := state.PutState(key, []byte(strconv.FormatUint(n+1, 10))); err != nil {
		return fmt.Errorf("failed to update counter %s: %w", key, err)
	}
	return nil
}
