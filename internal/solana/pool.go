package solana

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// DefaultPoolSize bounds the number of endpoints a pool keeps connections for
const DefaultPoolSize = 16

// Pool hands out one Client per endpoint URL, so switching back to a cluster reuses
// its connection. The least recently used client is closed once the pool is full.
type Pool struct {
	requestTimeout time.Duration
	clients        *lru.Cache[string, *Client]
	logger         zerolog.Logger
	mu             sync.Mutex
}

// NewPool creates an empty pool holding at most maxClients clients.
// A non-positive maxClients means DefaultPoolSize.
func NewPool(maxClients int, requestTimeout time.Duration, logger zerolog.Logger) *Pool {
	if maxClients <= 0 {
		maxClients = DefaultPoolSize
	}
	logger = logger.With().Str("component", "rpc").Logger()

	clients, err := lru.NewWithEvict(maxClients, func(url string, c *Client) {
		c.Close()
		logger.Debug().Str("endpoint", url).Msg("client closed")
	})
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}

	return &Pool{
		requestTimeout: requestTimeout,
		clients:        clients,
		logger:         logger,
	}
}

// Client returns the client for url, creating it if needed
func (p *Pool) Client(url string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients.Get(url); ok {
		return c
	}
	c := NewClient(Config{
		Endpoint:       url,
		RequestTimeout: p.requestTimeout,
		Logger:         p.logger,
	})
	p.clients.Add(url, c)
	p.logger.Debug().Str("endpoint", url).Int("clients", p.clients.Len()).Msg("client created")
	return c
}

// Len returns the number of live clients
func (p *Pool) Len() int {
	return p.clients.Len()
}

// Close closes every client
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients.Purge()
}
