package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"solexplorer/internal/cache"
	"solexplorer/internal/cluster"
	"solexplorer/internal/config"
	"solexplorer/internal/largest"
	"solexplorer/internal/names"
	"solexplorer/internal/price"
	"solexplorer/internal/report"
	"solexplorer/internal/solana"
	"solexplorer/internal/ws"
)

// Server represents the main server
type Server struct {
	cfg        *config.Config
	clusters   *cluster.Provider
	largest    *largest.Provider
	names      *names.Provider // nil when the name service is disabled
	poller     *price.Poller   // nil when price polling is disabled
	wsHandler  *ws.Handler
	httpServer *http.Server
	stopPoll   context.CancelFunc
	closers    []func()
	logger     zerolog.Logger
}

// New creates a new Server with its providers
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cluster: %w", err)
	}
	clusters := cluster.NewProvider(endpoint)
	logger.Info().
		Str("cluster", endpoint.Cluster.String()).
		Str("url", endpoint.URL).
		Msg("cluster selected")

	pool := solana.NewPool(solana.DefaultPoolSize, cfg.GetRequestTimeoutDuration(), logger)
	reporter := report.NewLogReporter(logger)

	s := &Server{
		cfg:      cfg,
		clusters: clusters,
		logger:   logger,
	}
	s.closers = append(s.closers, pool.Close)

	s.largest = largest.NewProvider(clusters, largest.Options{
		Dial:        func(url string) largest.RPC { return pool.Client(url) },
		Reporter:    reporter,
		Concurrency: cfg.EnrichConcurrency,
		Logger:      logger,
	})

	if cfg.IsNamesEnabled() {
		memo, err := cache.NewMemoryCache[string](cfg.Names.CacheSize, cfg.Names.GetCacheTTLDuration())
		if err != nil {
			return nil, fmt.Errorf("failed to create name cache: %w", err)
		}
		s.closers = append(s.closers, memo.Close)

		resolver := names.NewProxyResolver(cfg.Names.ProxyURL, cfg.GetRequestTimeoutDuration(), memo, logger)
		s.names = names.NewProvider(clusters, names.Options{
			Dial:          func(url string) names.RPC { return pool.Client(url) },
			Resolver:      resolver,
			ResolverScope: resolver.BaseURL(),
			Reporter:      reporter,
			Concurrency:   cfg.EnrichConcurrency,
			Logger:        logger,
		})

		logger.Info().
			Str("proxy", cfg.Names.ProxyURL).
			Int("cacheSize", cfg.Names.CacheSize).
			Int("cacheTtl", cfg.Names.CacheTTL).
			Msg("name service enabled")
	} else {
		logger.Info().Msg("name service disabled")
	}

	if cfg.IsPriceEnabled() {
		client := price.NewClient(cfg.Price.APIURL, cfg.GetRequestTimeoutDuration())
		s.poller = price.NewPoller(client, client.BaseURL(), cfg.Price.GetRefreshIntervalDuration(), logger)

		logger.Info().
			Str("api", cfg.Price.APIURL).
			Strs("coins", cfg.Price.Coins).
			Msg("price polling enabled")
	} else {
		logger.Info().Msg("price polling disabled")
	}

	return s, nil
}

// sources returns the watchable feature caches
func (s *Server) sources() map[string]ws.Source {
	sources := map[string]ws.Source{
		largest.Feature: ws.CacheSource(largest.Feature, s.largest.Cache()),
	}
	if s.names != nil {
		sources[names.FeatureUserDomains] = ws.CacheSource(names.FeatureUserDomains, s.names.DomainsCache())
		sources[names.FeatureDomainInfo] = ws.CacheSource(names.FeatureDomainInfo, s.names.InfoCache())
	}
	if s.poller != nil {
		sources[price.Feature] = ws.CacheSource(price.Feature, s.poller.Cache())
	}
	return sources
}

// Handler returns the HTTP handler serving the API and the watch socket
func (s *Server) Handler() http.Handler {
	if s.wsHandler == nil {
		s.wsHandler = ws.NewHandler(s.sources(), s.logger)
	}
	return s.routes()
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		s.logger.Info().
			Str("addr", addr).
			Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	if s.poller != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopPoll = cancel
		for _, coin := range s.cfg.Price.Coins {
			go s.poller.Run(ctx, coin)
		}
	}

	s.logger.Info().
		Str("api", fmt.Sprintf("http://%s/api", addr)).
		Str("ws", fmt.Sprintf("ws://%s/ws", addr)).
		Msg("endpoint available")

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server...")

	if s.stopPoll != nil {
		s.stopPoll()
	}
	if s.wsHandler != nil {
		s.wsHandler.CloseAll()
	}

	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}

	s.largest.Close()
	if s.names != nil {
		s.names.Close()
	}
	if s.poller != nil {
		s.poller.Close()
	}
	for _, closeFn := range s.closers {
		closeFn()
	}

	if httpErr != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", httpErr)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

// Clusters returns the cluster provider
func (s *Server) Clusters() *cluster.Provider {
	return s.clusters
}
