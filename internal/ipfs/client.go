// Package ipfs pins certificate documents to an IPFS node through its HTTP
// API. The returned CID is stored on-chain verbatim as the record's storage
// locator; nothing here parses or validates its internal structure.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client talks to a single IPFS node.
type Client struct {
	apiURL     string
	gatewayURL string
	httpClient *http.Client
}

// New builds a client for the node's API endpoint (e.g.
// http://127.0.0.1:5001) and public gateway (e.g. https://ipfs.io).
func New(apiURL, gatewayURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Add uploads data to the node and returns its CID. The node pins added
// content by default.
func (c *Client) Add(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipfs add failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ipfs add failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result addResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse ipfs response: %w", err)
	}
	if result.Hash == "" {
		return "", fmt.Errorf("ipfs response missing CID")
	}
	return result.Hash, nil
}

// GatewayURL returns a browser-fetchable URL for a CID, or an empty string
// when no gateway is configured.
func (c *Client) GatewayURL(cid string) string {
	if c.gatewayURL == "" || cid == "" {
		return ""
	}
	return c.gatewayURL + "/ipfs/" + cid
}
