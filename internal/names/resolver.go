package names

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solexplorer/internal/cache"
)

// DefaultProxyURL is the public SNS proxy
const DefaultProxyURL = "https://sns-sdk-proxy.bonfida.workers.dev"

// proxyResponse is the envelope every proxy endpoint returns
type proxyResponse struct {
	S      string          `json:"s"`
	Result json.RawMessage `json:"result"`
}

// ProxyResolver resolves names through an HTTP SNS proxy. Reverse lookups are
// memoized since a name account's domain never changes.
type ProxyResolver struct {
	baseURL    string
	httpClient *http.Client
	reverse    *cache.MemoryCache[string]
	logger     zerolog.Logger
}

// NewProxyResolver creates a resolver for the proxy at baseURL. reverse may be nil to disable memoization.
func NewProxyResolver(baseURL string, timeout time.Duration, reverse *cache.MemoryCache[string], logger zerolog.Logger) *ProxyResolver {
	return &ProxyResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		reverse:    reverse,
		logger:     logger.With().Str("component", "resolver").Logger(),
	}
}

// BaseURL returns the proxy URL
func (r *ProxyResolver) BaseURL() string {
	return r.baseURL
}

// Resolve returns the owner of domain
func (r *ProxyResolver) Resolve(ctx context.Context, domain string) (string, error) {
	return r.get(ctx, "resolve", domain)
}

// DomainKey returns the name account address of domain
func (r *ProxyResolver) DomainKey(ctx context.Context, domain string) (string, error) {
	return r.get(ctx, "domain-key", domain)
}

// ReverseLookup returns the domain stored for a name account
func (r *ProxyResolver) ReverseLookup(ctx context.Context, address string) (string, error) {
	if r.reverse != nil {
		if name, ok := r.reverse.Get(address); ok {
			return name, nil
		}
	}

	name, err := r.get(ctx, "reverse-lookup", address)
	if err != nil {
		return "", err
	}
	if r.reverse != nil {
		r.reverse.Set(address, name)
	}
	return name, nil
}

func (r *ProxyResolver) get(ctx context.Context, op, arg string) (string, error) {
	endpoint := r.baseURL + "/" + op + "/" + url.PathEscape(arg)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", op, arg, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s %s: failed to read response: %w", op, arg, err)
	}

	r.logger.Debug().
		Str("op", op).
		Str("arg", arg).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("proxy request")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s %s: HTTP error %d: %s", op, arg, resp.StatusCode, string(body))
	}

	var parsed proxyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s %s: failed to parse response: %w", op, arg, err)
	}
	if parsed.S != "ok" {
		return "", fmt.Errorf("%s %s: %w: %s", op, arg, ErrNotFound, string(parsed.Result))
	}

	var result string
	if err := json.Unmarshal(parsed.Result, &result); err != nil || result == "" {
		return "", fmt.Errorf("%s %s: %w", op, arg, ErrNotFound)
	}
	return result, nil
}
