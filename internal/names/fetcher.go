package names

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solexplorer/internal/cache"
	"solexplorer/internal/cluster"
	"solexplorer/internal/report"
	"solexplorer/internal/solana"
)

// Fetcher runs user-domain and domain-lookup fetch cycles
type Fetcher struct {
	domains     *cache.Cache[UserDomains]
	infos       *cache.Cache[DomainInfo]
	dial        DialFunc
	resolver    Resolver
	reporter    report.Reporter
	concurrency int
	logger      zerolog.Logger
}

// NewFetcher creates a fetcher writing user domains to domains and lookups to infos
func NewFetcher(domains *cache.Cache[UserDomains], infos *cache.Cache[DomainInfo], dial DialFunc, resolver Resolver, reporter report.Reporter, concurrency int, logger zerolog.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if reporter == nil {
		reporter = report.Nop
	}
	return &Fetcher{
		domains:     domains,
		infos:       infos,
		dial:        dial,
		resolver:    resolver,
		reporter:    reporter,
		concurrency: concurrency,
		logger:      logger,
	}
}

// SupportsUserDomains reports whether the name registry can be queried on endpoint
func SupportsUserDomains(endpoint cluster.Endpoint) bool {
	return endpoint.Cluster == cluster.MainnetBeta || endpoint.Cluster == cluster.Custom
}

// FetchUserDomains runs one fetch cycle listing the domains owned by owner.
// ErrUnsupportedCluster is returned without touching the cache on test clusters.
func (f *Fetcher) FetchUserDomains(ctx context.Context, owner string, endpoint cluster.Endpoint) error {
	if !SupportsUserDomains(endpoint) {
		return ErrUnsupportedCluster
	}
	f.domains.Dispatch(cache.StartFetch[UserDomains](owner, endpoint.URL))
	f.loadUserDomains(ctx, owner, endpoint)
	return nil
}

func (f *Fetcher) loadUserDomains(ctx context.Context, owner string, endpoint cluster.Endpoint) {
	accounts, err := f.dial(endpoint.URL).GetProgramAccounts(ctx, solana.NameProgramID,
		solana.MemcmpFilter{Offset: 0, Bytes: solana.SolTLDAuthority},
		solana.MemcmpFilter{Offset: 32, Bytes: owner},
	)
	if err != nil {
		f.logger.Debug().Err(err).Str("owner", owner).Msg("user domains fetch failed")
		f.domains.Dispatch(cache.Fail[UserDomains](owner, endpoint.URL))
		f.report(err, FeatureUserDomains, owner, endpoint)
		return
	}

	resolved := make([]*UserDomain, len(accounts))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, acc := range accounts {
		g.Go(func() error {
			name, err := f.resolver.ReverseLookup(ctx, acc.Pubkey)
			if err != nil {
				f.logger.Debug().Err(err).Str("account", acc.Pubkey).Msg("reverse lookup failed")
				f.report(fmt.Errorf("reverse lookup %s: %w", acc.Pubkey, err), FeatureUserDomains, owner, endpoint)
				return nil
			}
			resolved[i] = &UserDomain{Name: name + solSuffix, Address: acc.Pubkey}
			return nil
		})
	}
	g.Wait()

	domains := make([]UserDomain, 0, len(resolved))
	for _, d := range resolved {
		if d != nil {
			domains = append(domains, *d)
		}
	}
	slices.SortFunc(domains, func(a, b UserDomain) int {
		return strings.Compare(a.Name, b.Name)
	})

	f.domains.Dispatch(cache.Complete(owner, endpoint.URL, UserDomains{Domains: domains}))
}

// LookupDomain runs one lookup cycle for domain. Lookups always complete: a domain
// the resolver cannot find is recorded as not found.
func (f *Fetcher) LookupDomain(ctx context.Context, domain string) {
	scope := f.infos.Context()
	f.infos.Dispatch(cache.StartFetch[DomainInfo](domain, scope))
	f.loadDomainInfo(ctx, domain, scope)
}

func (f *Fetcher) loadDomainInfo(ctx context.Context, domain, scope string) {
	if !HasDomainSyntax(domain) {
		f.infos.Dispatch(cache.Complete(domain, scope, DomainInfo{}))
		return
	}

	owner, err := f.resolver.Resolve(ctx, domain)
	if err != nil {
		f.logger.Debug().Err(err).Str("domain", domain).Msg("domain not resolved")
		f.infos.Dispatch(cache.Complete(domain, scope, DomainInfo{}))
		return
	}
	key, err := f.resolver.DomainKey(ctx, domain)
	if err != nil {
		f.logger.Debug().Err(err).Str("domain", domain).Msg("domain key not resolved")
		f.infos.Dispatch(cache.Complete(domain, scope, DomainInfo{}))
		return
	}

	f.infos.Dispatch(cache.Complete(domain, scope, DomainInfo{
		Found:         true,
		DomainAddress: key,
		OwnerAddress:  owner,
	}))
}

func (f *Fetcher) report(err error, feature, key string, endpoint cluster.Endpoint) {
	if endpoint.IsCustom() {
		return
	}
	report.Safe(f.reporter, err, report.Metadata{
		Endpoint: endpoint.URL,
		Feature:  feature,
		Key:      key,
	})
}
