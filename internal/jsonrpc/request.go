package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Request represents a JSON-RPC request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      ID              `json:"id"`
}

// NewRequest creates a request with positional params
func NewRequest(method string, params interface{}, id ID) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		Method:  method,
		ID:      id,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = data
	}
	return req, nil
}

// ParseRequest parses a single JSON-RPC request. Batches are not accepted.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Validate checks the version and method
func (r *Request) Validate() error {
	if r.JSONRPC != Version {
		return fmt.Errorf("invalid jsonrpc version: %s", r.JSONRPC)
	}
	if r.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// WithID returns a shallow copy of r carrying id. Params are shared and must not be modified.
func (r *Request) WithID(id ID) *Request {
	clone := *r
	clone.ID = id
	return &clone
}

// Bytes returns the request as JSON bytes
func (r *Request) Bytes() ([]byte, error) {
	return json.Marshal(r)
}

// StringParams decodes params as a positional list of strings
func (r *Request) StringParams() ([]string, error) {
	var params []string
	if len(r.Params) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params format: %w", err)
	}
	return params, nil
}
