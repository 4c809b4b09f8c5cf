// Package cluster tracks the Solana cluster the explorer is pointed at. The active
// endpoint URL is the context token that scopes every fetch cache.
package cluster

import (
	"errors"
	"fmt"
	"sync"

	"solexplorer/internal/cache"
)

// ErrUnknownCluster is returned for cluster names that are not recognised
var ErrUnknownCluster = errors.New("unknown cluster")

// Cluster identifies a Solana network
type Cluster int

const (
	MainnetBeta Cluster = iota
	Testnet
	Devnet
	Custom
)

// Default endpoint URLs for the public clusters
const (
	MainnetBetaURL = "https://api.mainnet-beta.solana.com"
	TestnetURL     = "https://api.testnet.solana.com"
	DevnetURL      = "https://api.devnet.solana.com"
)

// String returns the cluster name as used in config and URLs
func (c Cluster) String() string {
	switch c {
	case MainnetBeta:
		return "mainnet-beta"
	case Testnet:
		return "testnet"
	case Devnet:
		return "devnet"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// DefaultURL returns the public endpoint for c; Custom has none
func (c Cluster) DefaultURL() string {
	switch c {
	case MainnetBeta:
		return MainnetBetaURL
	case Testnet:
		return TestnetURL
	case Devnet:
		return DevnetURL
	default:
		return ""
	}
}

// Parse returns the cluster named s
func Parse(s string) (Cluster, error) {
	switch s {
	case "mainnet-beta", "mainnet":
		return MainnetBeta, nil
	case "testnet":
		return Testnet, nil
	case "devnet":
		return Devnet, nil
	case "custom":
		return Custom, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCluster, s)
	}
}

// Endpoint is the active cluster and the URL requests go to
type Endpoint struct {
	Cluster Cluster `json:"-"`
	URL     string  `json:"url"`
}

// IsCustom reports whether the endpoint was supplied by the user. Custom endpoints
// may be private and are never sent to error reporting.
func (e Endpoint) IsCustom() bool {
	return e.Cluster == Custom
}

// NewEndpoint resolves the URL for c. customURL is required for Custom and ignored otherwise.
func NewEndpoint(c Cluster, customURL string) (Endpoint, error) {
	if c == Custom {
		if customURL == "" {
			return Endpoint{}, errors.New("custom cluster requires a url")
		}
		return Endpoint{Cluster: Custom, URL: customURL}, nil
	}
	url := c.DefaultURL()
	if url == "" {
		return Endpoint{}, fmt.Errorf("%w: %d", ErrUnknownCluster, c)
	}
	return Endpoint{Cluster: c, URL: url}, nil
}

// Provider holds the current endpoint and notifies listeners when it changes.
// A switch updates the endpoint and runs every listener as one step: switches never
// interleave, and WithCurrent callers never observe a half-applied switch.
type Provider struct {
	current   Endpoint
	listeners map[uint64]func(Endpoint)
	nextID    uint64
	mu        sync.RWMutex

	// switchMu is held exclusively for the duration of a switch
	switchMu sync.RWMutex
}

// NewProvider creates a provider starting at initial
func NewProvider(initial Endpoint) *Provider {
	return &Provider{
		current:   initial,
		listeners: make(map[uint64]func(Endpoint)),
	}
}

// Current returns the active endpoint
func (p *Provider) Current() Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// WithCurrent runs fn with the active endpoint while no switch is in progress.
// fn must not call Switch.
func (p *Provider) WithCurrent(fn func(Endpoint)) {
	p.switchMu.RLock()
	defer p.switchMu.RUnlock()
	fn(p.Current())
}

// Switch makes the endpoint for c current and runs the listeners before returning.
// Listeners are called only when the endpoint actually changes; they must not call
// Switch or WithCurrent.
func (p *Provider) Switch(c Cluster, customURL string) (Endpoint, error) {
	next, err := NewEndpoint(c, customURL)
	if err != nil {
		return Endpoint{}, err
	}

	p.switchMu.Lock()
	defer p.switchMu.Unlock()

	p.mu.Lock()
	if p.current == next {
		p.mu.Unlock()
		return next, nil
	}
	p.current = next
	fns := make([]func(Endpoint), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return next, nil
}

// OnChange registers fn to run after every endpoint change. The returned function unregisters it.
func (p *Provider) OnChange(fn func(Endpoint)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Bind keeps c scoped to the provider's endpoint: every change dispatches a clear for
// the endpoint current at that moment. The returned function stops tracking.
func Bind[T any](p *Provider, c *cache.Cache[T]) func() {
	return p.OnChange(func(Endpoint) {
		c.Dispatch(cache.Clear[T](p.Current().URL))
	})
}
