package solana

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"solexplorer/internal/jsonrpc"
)

// Transport carries one JSON-RPC exchange to an endpoint
type Transport interface {
	Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)
	Close()
}

// HTTPTransport posts JSON-RPC requests over HTTP
type HTTPTransport struct {
	url        string
	httpClient *http.Client
}

// NewHTTPTransport creates an HTTP transport for url
func NewHTTPTransport(url string, timeout time.Duration) *HTTPTransport {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPTransport{
		url: url,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Execute sends a JSON-RPC request via HTTP
func (t *HTTPTransport) Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	reqBytes, err := req.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	rpcResp, err := jsonrpc.ParseResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return rpcResp, nil
}

// Close releases idle connections
func (t *HTTPTransport) Close() {
	t.httpClient.CloseIdleConnections()
}
