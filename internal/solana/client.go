package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"solexplorer/internal/jsonrpc"
)

// ErrAccountNotFound is returned when an account lookup yields no account
var ErrAccountNotFound = errors.New("account not found")

// Commitment levels accepted by the RPC
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// Client is a Solana JSON-RPC client bound to one endpoint
type Client struct {
	endpoint  string
	transport Transport
	reqID     atomic.Int64
	logger    zerolog.Logger
}

// Config for creating a new Client
type Config struct {
	Endpoint       string
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// NewClient creates a client, picking a WebSocket transport for ws:// and wss:// endpoints
// and HTTP otherwise
func NewClient(cfg Config) *Client {
	logger := cfg.Logger.With().Str("endpoint", cfg.Endpoint).Logger()

	var transport Transport
	if strings.HasPrefix(cfg.Endpoint, "ws://") || strings.HasPrefix(cfg.Endpoint, "wss://") {
		transport = NewWSTransport(cfg.Endpoint, cfg.RequestTimeout, logger)
	} else {
		transport = NewHTTPTransport(cfg.Endpoint, cfg.RequestTimeout)
	}

	return NewClientWithTransport(cfg.Endpoint, transport, logger)
}

// NewClientWithTransport creates a client over an existing transport
func NewClientWithTransport(endpoint string, transport Transport, logger zerolog.Logger) *Client {
	return &Client{
		endpoint:  endpoint,
		transport: transport,
		logger:    logger,
	}
}

// Endpoint returns the endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases the transport
func (c *Client) Close() {
	c.transport.Close()
}

// call executes method and decodes the result into out
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req, err := jsonrpc.NewRequest(method, params, jsonrpc.NewIDInt(c.reqID.Add(1)))
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.transport.Execute(ctx, req)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", method).
			Dur("elapsed", time.Since(start)).
			Msg("request failed")
		return fmt.Errorf("%s: %w", method, err)
	}

	if err := resp.Err(); err != nil {
		c.logger.Debug().
			Str("method", method).
			Int("errorCode", resp.Error.Code).
			Str("errorMessage", resp.Error.Message).
			Msg("RPC error response")
		return fmt.Errorf("%s: %w", method, err)
	}

	c.logger.Debug().
		Str("method", method).
		Dur("elapsed", time.Since(start)).
		Msg("request succeeded")

	if err := resp.DecodeResult(out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}
