package ipfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "diploma.pdf", header.Filename)

		w.Write([]byte(`{"Name":"diploma.pdf","Hash":"QmTestCID","Size":"42"}`))
	}))
	defer server.Close()

	client := New(server.URL, "https://ipfs.example.org", 5*time.Second)
	cid, err := client.Add(context.Background(), "diploma.pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, "QmTestCID", cid)
	assert.Equal(t, "/api/v0/add", gotPath)
}

func TestAddServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node is down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	_, err := client.Add(context.Background(), "f", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestAddMissingCID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	_, err := client.Add(context.Background(), "f", []byte("x"))
	assert.Error(t, err)
}

func TestGatewayURL(t *testing.T) {
	client := New("http://127.0.0.1:5001", "https://ipfs.io/", time.Second)
	assert.Equal(t, "https://ipfs.io/ipfs/QmX", client.GatewayURL("QmX"))
	assert.Empty(t, client.GatewayURL(""))

	noGateway := New("http://127.0.0.1:5001", "", time.Second)
	assert.Empty(t, noGateway.GatewayURL("QmX"))
}
