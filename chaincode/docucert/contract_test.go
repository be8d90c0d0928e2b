package docucert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/anushankari123/docuchain/internal/digest"
)

// fakeState is an in-memory stand-in for the chaincode stub.
type fakeState struct {
	kv     map[string][]byte
	events map[string][][]byte
	ts     int64
}

func newFakeState() *fakeState {
	return &fakeState{
		kv:     make(map[string][]byte),
		events: make(map[string][][]byte),
		ts:     1700000000,
	}
}

func (s *fakeState) GetState(key string) ([]byte, error) {
	return s.kv[key], nil
}

func (s *fakeState) PutState(key string, value []byte) error {
	s.kv[key] = value
	return nil
}

func (s *fakeState) SetEvent(name string, payload []byte) error {
	s.events[name] = append(s.events[name], payload)
	return nil
}

func (s *fakeState) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return &timestamppb.Timestamp{Seconds: s.ts}, nil
}

func testKeyHex(data string) string {
	return digest.Sum([]byte(data)).Hex()
}

func TestIssueStoresRecord(t *testing.T) {
	state := newFakeState()
	keyHex := testKeyHex("doc")

	rec, err := issue(state, "Org1MSP/alice", keyHex, "QmCID")
	require.NoError(t, err)
	assert.True(t, rec.Active)
	assert.Equal(t, "Org1MSP/alice", rec.Owner)
	assert.Equal(t, keyHex, rec.Key)
	assert.Equal(t, int64(1700000000), rec.IssuedAt)
	assert.Equal(t, "QmCID", rec.StorageLocator)

	assert.Len(t, state.events[EventIssued], 1)

	stats, err := statistics(state)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalIssued)
	assert.Equal(t, uint64(1), stats.ActiveCount)
}

func TestIssueNormalizesKeyCase(t *testing.T) {
	state := newFakeState()
	keyHex := testKeyHex("doc")

	_, err := issue(state, "Org1MSP/alice", strings.ToUpper(strings.TrimPrefix(keyHex, "0x")), "cid")
	require.NoError(t, err)

	rec, err := verify(state, keyHex)
	require.NoError(t, err)
	assert.True(t, rec.Active)
}

func TestIssueRejectsMalformedKey(t *testing.T) {
	state := newFakeState()

	_, err := issue(state, "Org1MSP/alice", "0x1234", "cid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeInvalidKey)

	_, err = issue(state, "Org1MSP/alice", "0x"+strings.Repeat("0", 64), "cid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeInvalidKey)
}

func TestIssueDuplicate(t *testing.T) {
	state := newFakeState()
	keyHex := testKeyHex("doc")

	_, err := issue(state, "Org1MSP/alice", keyHex, "cid")
	require.NoError(t, err)

	_, err = issue(state, "Org1MSP/bob", keyHex, "cid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeAlreadyIssued)

	stats, err := statistics(state)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalIssued)
}

func TestVerifyUnknownKey(t *testing.T) {
	state := newFakeState()
	keyHex := testKeyHex("never issued")

	rec, err := verify(state, keyHex)
	require.NoError(t, err)
	assert.False(t, rec.Active)
	assert.Empty(t, rec.Owner)
	assert.Equal(t, keyHex, rec.Key)
}

func TestRevokeLifecycle(t *testing.T) {
	state := newFakeState()
	keyHex := testKeyHex("doc")

	issued, err := issue(state, "Org1MSP/alice", keyHex, "cid")
	require.NoError(t, err)

	rec, err := revoke(state, "Org1MSP/alice", keyHex)
	require.NoError(t, err)
	assert.False(t, rec.Active)
	assert.Equal(t, issued.Owner, rec.Owner)
	assert.Equal(t, issued.IssuedAt, rec.IssuedAt)
	assert.Equal(t, issued.StorageLocator, rec.StorageLocator)

	assert.Len(t, state.events[EventRevoked], 1)

	// Second revocation fails and leaves the counter alone.
	_, err = revoke(state, "Org1MSP/alice", keyHex)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeAlreadyRevoked)

	stats, err := statistics(state)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalRevoked)
	assert.Equal(t, uint64(0), stats.ActiveCount)
}

func TestRevokeByNonOwner(t *testing.T) {
	state := newFakeState()
	keyHex := testKeyHex("doc")

	_, err := issue(state, "Org1MSP/alice", keyHex, "cid")
	require.NoError(t, err)

	_, err = revoke(state, "Org2MSP/mallory", keyHex)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeNotAuthorized)

	rec, err := verify(state, keyHex)
	require.NoError(t, err)
	assert.True(t, rec.Active)
}

func TestRevokeUnknownKey(t *testing.T) {
	state := newFakeState()

	_, err := revoke(state, "Org1MSP/alice", testKeyHex("ghost"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeNotFound)
}

func TestReissueAfterRevokeRejected(t *testing.T) {
	state := newFakeState()
	keyHex := testKeyHex("doc")

	_, err := issue(state, "Org1MSP/alice", keyHex, "cid")
	require.NoError(t, err)
	_, err = revoke(state, "Org1MSP/alice", keyHex)
	require.NoError(t, err)

	_, err = issue(state, "Org1MSP/alice", keyHex, "cid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeAlreadyIssued)
}

func TestStatisticsEmptyLedger(t *testing.T) {
	stats, err := statistics(newFakeState())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TotalIssued)
	assert.Equal(t, uint64(0), stats.TotalRevoked)
	assert.Equal(t, uint64(0), stats.ActiveCount)
}
