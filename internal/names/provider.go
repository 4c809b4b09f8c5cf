package names

import (
	"context"

	"github.com/rs/zerolog"

	"solexplorer/internal/cache"
	"solexplorer/internal/cluster"
	"solexplorer/internal/report"
)

// Options configures a Provider
type Options struct {
	Dial     DialFunc
	Resolver Resolver
	// ResolverScope identifies the registry behind Resolver; domain lookups are cached under it
	ResolverScope string
	Reporter      report.Reporter
	Concurrency   int
	Logger        zerolog.Logger
}

// Provider owns the user-domain and domain-lookup caches. User domains follow the
// cluster provider; lookups go to the resolver's registry and survive cluster switches.
type Provider struct {
	domains  *cache.Cache[UserDomains]
	infos    *cache.Cache[DomainInfo]
	fetcher  *Fetcher
	clusters *cluster.Provider
	unbind   func()
	logger   zerolog.Logger
}

// NewProvider creates both caches
func NewProvider(clusters *cluster.Provider, opts Options) *Provider {
	logger := opts.Logger.With().Str("component", "names").Logger()
	scope := opts.ResolverScope
	if scope == "" {
		scope = cluster.MainnetBetaURL
	}

	domains := cache.New[UserDomains](clusters.Current().URL, logger)
	infos := cache.New[DomainInfo](scope, logger)

	return &Provider{
		domains:  domains,
		infos:    infos,
		fetcher:  NewFetcher(domains, infos, opts.Dial, opts.Resolver, opts.Reporter, opts.Concurrency, logger),
		clusters: clusters,
		unbind:   cluster.Bind(clusters, domains),
		logger:   logger,
	}
}

// UserDomains returns the view of domains per owner
func (p *Provider) UserDomains() *UserDomainsView {
	return &UserDomainsView{p: p}
}

// DomainInfo returns the view of domain lookups
func (p *Provider) DomainInfo() *DomainInfoView {
	return &DomainInfoView{p: p}
}

// DomainsCache returns the user-domain cache for watchers
func (p *Provider) DomainsCache() *cache.Cache[UserDomains] {
	return p.domains
}

// InfoCache returns the domain-lookup cache for watchers
func (p *Provider) InfoCache() *cache.Cache[DomainInfo] {
	return p.infos
}

// Close ends the scope of both caches
func (p *Provider) Close() {
	p.unbind()
	p.domains.Close()
	p.infos.Close()
}

// UserDomainsView reads and triggers user-domain fetches keyed by owner address
type UserDomainsView struct {
	p *Provider
}

// Read returns the entry for owner
func (v *UserDomainsView) Read(owner string) (cache.Entry[UserDomains], bool) {
	return v.p.domains.Read(owner)
}

// RequestFetch starts a fetch for owner on the current cluster. Nothing happens on
// clusters without a name registry.
func (v *UserDomainsView) RequestFetch(owner string) {
	v.p.clusters.WithCurrent(func(endpoint cluster.Endpoint) {
		if !SupportsUserDomains(endpoint) {
			v.p.logger.Debug().Str("cluster", endpoint.Cluster.String()).Msg("user domains not available")
			return
		}
		v.p.domains.Dispatch(cache.StartFetch[UserDomains](owner, endpoint.URL))
		go v.p.fetcher.loadUserDomains(context.Background(), owner, endpoint)
	})
}

// DomainInfoView reads and triggers domain lookups keyed by domain name
type DomainInfoView struct {
	p *Provider
}

// Read returns the entry for domain
func (v *DomainInfoView) Read(domain string) (cache.Entry[DomainInfo], bool) {
	return v.p.infos.Read(domain)
}

// RequestFetch starts a lookup for domain
func (v *DomainInfoView) RequestFetch(domain string) {
	scope := v.p.infos.Context()
	v.p.infos.Dispatch(cache.StartFetch[DomainInfo](domain, scope))
	go v.p.fetcher.loadDomainInfo(context.Background(), domain, scope)
}
