package largest

import (
	"context"

	"github.com/rs/zerolog"

	"solexplorer/internal/cache"
	"solexplorer/internal/cluster"
	"solexplorer/internal/report"
)

// Provider owns the largest-accounts cache for the lifetime of a consumer.
// The cache follows the cluster provider and is cleared on every switch.
type Provider struct {
	cache    *cache.Cache[LargestAccounts]
	fetcher  *Fetcher
	clusters *cluster.Provider
	unbind   func()
}

// Options configures a Provider
type Options struct {
	Dial        DialFunc
	Reporter    report.Reporter
	Concurrency int
	Logger      zerolog.Logger
}

// NewProvider creates the cache at the current cluster endpoint
func NewProvider(clusters *cluster.Provider, opts Options) *Provider {
	logger := opts.Logger.With().Str("component", Feature).Logger()
	c := cache.New[LargestAccounts](clusters.Current().URL, logger)

	return &Provider{
		cache:    c,
		fetcher:  NewFetcher(c, opts.Dial, opts.Reporter, opts.Concurrency, logger),
		clusters: clusters,
		unbind:   cluster.Bind(clusters, c),
	}
}

// View returns the subscriber interface
func (p *Provider) View() *View {
	return &View{p: p}
}

// Cache returns the underlying cache for watchers
func (p *Provider) Cache() *cache.Cache[LargestAccounts] {
	return p.cache
}

// Close ends the scope. Fetches still in flight complete into the closed cache and are dropped.
func (p *Provider) Close() {
	p.unbind()
	p.cache.Close()
}

// View is what consumers use to read entries and trigger fetches
type View struct {
	p *Provider
}

// Read returns the entry for mint. It panics with cache.ErrScopeClosed after the provider is closed.
func (v *View) Read(mint string) (cache.Entry[LargestAccounts], bool) {
	return v.p.cache.Read(mint)
}

// RequestFetch starts a fetch cycle for mint against the endpoint current at call time.
// The entry is marked fetching before RequestFetch returns.
func (v *View) RequestFetch(mint string) {
	v.p.clusters.WithCurrent(func(endpoint cluster.Endpoint) {
		v.p.fetcher.start(mint, endpoint)
		go v.p.fetcher.load(context.Background(), mint, endpoint)
	})
}
