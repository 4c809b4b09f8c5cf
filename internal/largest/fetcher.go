package largest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solexplorer/internal/cache"
	"solexplorer/internal/cluster"
	"solexplorer/internal/report"
	"solexplorer/internal/solana"
)

// Fetcher runs fetch cycles for mints and records their outcome in a cache
type Fetcher struct {
	cache       *cache.Cache[LargestAccounts]
	dial        DialFunc
	reporter    report.Reporter
	concurrency int
	logger      zerolog.Logger
}

// NewFetcher creates a fetcher writing to c
func NewFetcher(c *cache.Cache[LargestAccounts], dial DialFunc, reporter report.Reporter, concurrency int, logger zerolog.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if reporter == nil {
		reporter = report.Nop
	}
	return &Fetcher{
		cache:       c,
		dial:        dial,
		reporter:    reporter,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Fetch runs one full fetch cycle for mint against endpoint
func (f *Fetcher) Fetch(ctx context.Context, mint string, endpoint cluster.Endpoint) {
	f.start(mint, endpoint)
	f.load(ctx, mint, endpoint)
}

func (f *Fetcher) start(mint string, endpoint cluster.Endpoint) {
	f.cache.Dispatch(cache.StartFetch[LargestAccounts](mint, endpoint.URL))
}

// load performs the RPC calls and dispatches the terminal intent
func (f *Fetcher) load(ctx context.Context, mint string, endpoint cluster.Endpoint) {
	rpc := f.dial(endpoint.URL)

	amounts, err := rpc.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		f.logger.Debug().Err(err).Str("mint", mint).Msg("largest accounts fetch failed")
		f.cache.Dispatch(cache.Fail[LargestAccounts](mint, endpoint.URL))
		f.report(err, mint, endpoint)
		return
	}

	accounts := make([]TokenAccount, len(amounts))
	for i, a := range amounts {
		accounts[i] = TokenAccount{UIAmountString: a.UIAmountString, Address: a.Address}
	}

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i := range accounts {
		g.Go(func() error {
			owner, err := f.owner(ctx, rpc, accounts[i].Address)
			if err != nil {
				f.logger.Debug().Err(err).Str("account", accounts[i].Address).Msg("owner lookup failed")
				f.report(err, mint, endpoint)
				return nil
			}
			accounts[i].Owner = owner
			return nil
		})
	}
	g.Wait()

	f.cache.Dispatch(cache.Complete(mint, endpoint.URL, LargestAccounts{Largest: accounts}))
}

// owner resolves the wallet of a token account. A missing account or one without
// parsed token data yields an empty owner and no error.
func (f *Fetcher) owner(ctx context.Context, rpc RPC, address string) (string, error) {
	info, err := rpc.GetAccountInfo(ctx, address)
	if errors.Is(err, solana.ErrAccountNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("owner of %s: %w", address, err)
	}
	owner, _ := info.TokenOwner()
	return owner, nil
}

func (f *Fetcher) report(err error, mint string, endpoint cluster.Endpoint) {
	if endpoint.IsCustom() {
		return
	}
	report.Safe(f.reporter, err, report.Metadata{
		Endpoint: endpoint.URL,
		Feature:  Feature,
		Key:      mint,
	})
}
