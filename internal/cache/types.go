package cache

import (
	"encoding/json"
	"errors"
)

// ErrScopeClosed is the panic value raised when a closed Cache is read
var ErrScopeClosed = errors.New("cache: read outside of an active scope")

// FetchStatus is the lifecycle state of a cache entry
type FetchStatus int

const (
	// Fetching - a fetch cycle for the key is in progress
	Fetching FetchStatus = iota
	// Fetched - the last fetch cycle completed and the entry holds data
	Fetched
	// FetchFailed - the last fetch cycle failed; the entry holds no data
	FetchFailed
)

// String returns the status name
func (s FetchStatus) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	case FetchFailed:
		return "fetchFailed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its name
func (s FetchStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Entry is the cached state of one key. Data is non-nil exactly when Status is Fetched.
type Entry[T any] struct {
	Status FetchStatus `json:"status"`
	Data   *T          `json:"data,omitempty"`
}

// State is the full contents of a cache: entries for one context
type State[T any] struct {
	Context string
	Entries map[string]Entry[T]
}

// IntentKind identifies a dispatcher intent
type IntentKind int

const (
	IntentClear IntentKind = iota
	IntentStartFetch
	IntentComplete
	IntentFail
)

// String returns the intent name
func (k IntentKind) String() string {
	switch k {
	case IntentClear:
		return "clear"
	case IntentStartFetch:
		return "startFetch"
	case IntentComplete:
		return "complete"
	case IntentFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Intent is a request to move the cache to its next state
type Intent[T any] struct {
	Kind    IntentKind
	Key     string
	Context string
	Data    T
	Force   bool // clear even when the context is unchanged
}

// Clear resets the cache when ctx differs from the current context
func Clear[T any](ctx string) Intent[T] {
	return Intent[T]{Kind: IntentClear, Context: ctx}
}

// ClearAll resets the cache unconditionally and adopts ctx
func ClearAll[T any](ctx string) Intent[T] {
	return Intent[T]{Kind: IntentClear, Context: ctx, Force: true}
}

// StartFetch marks key as fetching under ctx
func StartFetch[T any](key, ctx string) Intent[T] {
	return Intent[T]{Kind: IntentStartFetch, Key: key, Context: ctx}
}

// Complete stores data for key under ctx
func Complete[T any](key, ctx string, data T) Intent[T] {
	return Intent[T]{Kind: IntentComplete, Key: key, Context: ctx, Data: data}
}

// Fail marks key as failed under ctx
func Fail[T any](key, ctx string) Intent[T] {
	return Intent[T]{Kind: IntentFail, Key: key, Context: ctx}
}

// Change describes one applied state transition, delivered to watchers
type Change[T any] struct {
	Context string
	Key     string // empty when Cleared
	Entry   Entry[T]
	Cleared bool
}
