package price

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"solexplorer/internal/cache"
)

// Feature is the name used in watch subscriptions
const Feature = "price"

// DefaultRefreshInterval is how often a polled coin is refreshed
const DefaultRefreshInterval = 10 * time.Second

// Source returns market data for a coin
type Source interface {
	CoinInfo(ctx context.Context, id string) (CoinInfo, error)
}

// Poller keeps coin entries fresh. Its cache is scoped to the API it polls.
type Poller struct {
	cache    *cache.Cache[CoinInfo]
	source   Source
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a poller for source; scope identifies the API behind it
func NewPoller(source Source, scope string, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	logger = logger.With().Str("component", Feature).Logger()
	return &Poller{
		cache:    cache.New[CoinInfo](scope, logger),
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Fetch runs one fetch cycle for id. A refresh leaves the previous entry in place
// until the new result lands.
func (p *Poller) Fetch(ctx context.Context, id string, refresh bool) {
	scope := p.cache.Context()
	if !refresh {
		p.cache.Dispatch(cache.StartFetch[CoinInfo](id, scope))
	}
	p.load(ctx, id, scope)
}

func (p *Poller) load(ctx context.Context, id, scope string) {
	info, err := p.source.CoinInfo(ctx, id)
	if err != nil {
		p.logger.Warn().Err(err).Str("coin", id).Msg("price fetch failed")
		p.cache.Dispatch(cache.Fail[CoinInfo](id, scope))
		return
	}
	p.cache.Dispatch(cache.Complete(id, scope, info))
}

// Run fetches id and refreshes it every interval until ctx is done
func (p *Poller) Run(ctx context.Context, id string) {
	p.Fetch(ctx, id, false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Fetch(ctx, id, true)
		}
	}
}

// Cache returns the underlying cache for watchers
func (p *Poller) Cache() *cache.Cache[CoinInfo] {
	return p.cache
}

// Read returns the entry for id
func (p *Poller) Read(id string) (cache.Entry[CoinInfo], bool) {
	return p.cache.Read(id)
}

// RequestFetch starts a one-off fetch for id
func (p *Poller) RequestFetch(id string) {
	scope := p.cache.Context()
	p.cache.Dispatch(cache.StartFetch[CoinInfo](id, scope))
	go p.load(context.Background(), id, scope)
}

// Close ends the cache scope
func (p *Poller) Close() {
	p.cache.Close()
}
