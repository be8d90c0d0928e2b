package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anushankari123/docuchain/internal/digest"
	"github.com/anushankari123/docuchain/internal/registry"
)

type fakePinner struct {
	cid string
	err error
}

func (p *fakePinner) Add(_ context.Context, _ string, _ []byte) (string, error) {
	return p.cid, p.err
}

func (p *fakePinner) GatewayURL(cid string) string {
	return "https://ipfs.example.org/ipfs/" + cid
}

func newTestServer(t *testing.T, pinner Pinner) *Server {
	t.Helper()
	core := registry.NewCore(registry.NewMemoryLedger())
	return NewServer(Options{
		Service: core,
		Pinner:  pinner,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Issuers: map[string]string{
			"alice-token": "alice",
			"bob-token":   "bob",
		},
	})
}

func multipartBody(t *testing.T, field, filename string, content []byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func issueDocument(t *testing.T, s *Server, token string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, documentField, "cert.pdf", content, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/certificates", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeCertificate(t *testing.T, rr *httptest.ResponseRecorder) certificateResponse {
	t.Helper()
	var resp certificateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestIssueAndGet(t *testing.T) {
	s := newTestServer(t, &fakePinner{cid: "QmCID"})
	doc := []byte("SAMPLE-CERT-1")

	rr := issueDocument(t, s, "alice-token", doc)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	issued := decodeCertificate(t, rr)
	assert.Equal(t, digest.Sum(doc).Hex(), issued.Key)
	assert.True(t, issued.Active)
	assert.True(t, issued.EverIssued)
	assert.Equal(t, "alice", issued.Owner)
	assert.Equal(t, "QmCID", issued.StorageLocator)
	assert.Equal(t, "https://ipfs.example.org/ipfs/QmCID", issued.StorageURL)
	assert.Equal(t, "docuchain:v1:"+issued.Key, issued.QRPayload)

	req := httptest.NewRequest(http.MethodGet, "/api/certificates/"+issued.Key, nil)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeCertificate(t, rr)
	assert.Equal(t, issued.Key, got.Key)
	assert.True(t, got.Active)
}

func TestIssueRequiresAuth(t *testing.T) {
	s := newTestServer(t, nil)
	doc := []byte("doc")

	body, contentType := multipartBody(t, documentField, "cert.pdf", doc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/certificates", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = issueDocument(t, s, "wrong-token", doc)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestIssueDuplicateConflict(t *testing.T) {
	s := newTestServer(t, nil)
	doc := []byte("doc")

	rr := issueDocument(t, s, "alice-token", doc)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = issueDocument(t, s, "alice-token", doc)
	assert.Equal(t, http.StatusConflict, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "already_issued", resp.Error)
	assert.False(t, resp.Retriable)
}

func TestIssuePinningFailureIsRetriable(t *testing.T) {
	s := newTestServer(t, &fakePinner{err: errors.New("node unreachable")})

	rr := issueDocument(t, s, "alice-token", []byte("doc"))
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "backend_unavailable", resp.Error)
	assert.True(t, resp.Retriable)
}

func TestIssueMissingDocument(t *testing.T) {
	s := newTestServer(t, nil)

	body, contentType := multipartBody(t, "", "", nil, map[string]string{"note": "no file"})
	req := httptest.NewRequest(http.MethodPost, "/api/certificates", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer alice-token")

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyByDocumentTamperDetection(t *testing.T) {
	s := newTestServer(t, nil)

	rr := issueDocument(t, s, "alice-token", []byte("SAMPLE-CERT-1"))
	require.Equal(t, http.StatusCreated, rr.Code)

	// The original document verifies as active.
	body, contentType := multipartBody(t, documentField, "cert.pdf", []byte("SAMPLE-CERT-1"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/certificates/verify", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeCertificate(t, rr)
	assert.True(t, resp.Active)
	assert.Equal(t, "alice", resp.Owner)

	// A tampered document hashes to an unknown key.
	body, contentType = multipartBody(t, documentField, "cert.pdf", []byte("SAMPLE-CERT-2"), nil)
	req = httptest.NewRequest(http.MethodPost, "/api/certificates/verify", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decodeCertificate(t, rr)
	assert.False(t, resp.Active)
	assert.False(t, resp.EverIssued)
	assert.Empty(t, resp.Owner)
}

func TestVerifyByKeyAndPayload(t *testing.T) {
	s := newTestServer(t, nil)
	doc := []byte("doc")
	keyHex := digest.Sum(doc).Hex()

	rr := issueDocument(t, s, "alice-token", doc)
	require.Equal(t, http.StatusCreated, rr.Code)

	for _, values := range []map[string]string{
		{"key": keyHex},
		{"payload": "docuchain:v1:" + keyHex},
	} {
		body, contentType := multipartBody(t, "", "", nil, values)
		req := httptest.NewRequest(http.MethodPost, "/api/certificates/verify", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, "values %v", values)
		assert.True(t, decodeCertificate(t, rr).Active)
	}
}

func TestVerifyMalformedKey(t *testing.T) {
	s := newTestServer(t, nil)

	body, contentType := multipartBody(t, "", "", nil, map[string]string{"key": "0x1234"})
	req := httptest.NewRequest(http.MethodPost, "/api/certificates/verify", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRevokeLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	doc := []byte("doc")
	keyHex := digest.Sum(doc).Hex()

	rr := issueDocument(t, s, "alice-token", doc)
	require.Equal(t, http.StatusCreated, rr.Code)

	revoke := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/certificates/"+keyHex+"/revoke", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		return rr
	}

	// A different issuer cannot revoke.
	rr = revoke("bob-token")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = revoke("alice-token")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decodeCertificate(t, rr)
	assert.False(t, resp.Active)
	assert.True(t, resp.EverIssued)
	assert.Equal(t, "alice", resp.Owner)

	rr = revoke("alice-token")
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Revoking an unknown key is 404.
	unknown := digest.Sum([]byte("ghost")).Hex()
	req := httptest.NewRequest(http.MethodPost, "/api/certificates/"+unknown+"/revoke", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil)

	for i := 0; i < 3; i++ {
		rr := issueDocument(t, s, "alice-token", []byte(fmt.Sprintf("doc-%d", i)))
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	keyHex := digest.Sum([]byte("doc-0")).Hex()
	req := httptest.NewRequest(http.MethodPost, "/api/certificates/"+keyHex+"/revoke", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var stats statsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, uint64(3), stats.TotalIssued)
	assert.Equal(t, uint64(1), stats.TotalRevoked)
	assert.Equal(t, uint64(2), stats.ActiveCount)
}

func TestQREndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	keyHex := digest.Sum([]byte("doc")).Hex()

	req := httptest.NewRequest(http.MethodGet, "/api/certificates/"+keyHex+"/qr?size=128", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/api/certificates/"+keyHex+"/qr?size=9", nil)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	// A proxy-supplied ID is preserved.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "upstream-42")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "upstream-42", rr.Header().Get("X-Request-Id"))
}
