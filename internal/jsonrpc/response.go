package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNoResult = errors.New("response has neither result nor error")

// Response represents a JSON-RPC response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      ID              `json:"id"`
}

// NewResponse creates a successful response
func NewResponse(id ID, result interface{}) (*Response, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &Response{JSONRPC: Version, Result: data, ID: id}, nil
}

// NewErrorResponse creates an error response
func NewErrorResponse(id ID, err *Error) *Response {
	return &Response{JSONRPC: Version, Error: err, ID: id}
}

// ParseResponse parses a JSON-RPC response from bytes
func ParseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// Err returns the RPC error carried by the response, or nil
func (r *Response) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// DecodeResult unmarshals the result into v. A JSON null result leaves v untouched.
func (r *Response) DecodeResult(v interface{}) error {
	if len(r.Result) == 0 {
		return errNoResult
	}
	return json.Unmarshal(r.Result, v)
}

// Bytes returns the response as JSON bytes
func (r *Response) Bytes() ([]byte, error) {
	return json.Marshal(r)
}
