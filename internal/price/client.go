// Package price polls coin market data and caches it per coin id
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIURL is the public CoinGecko API
const DefaultAPIURL = "https://api.coingecko.com/api/v3"

// CoinInfo is the market summary for one coin in USD
type CoinInfo struct {
	Price                    float64   `json:"price"`
	Volume24h                float64   `json:"volume24h"`
	MarketCap                float64   `json:"marketCap"`
	PriceChangePercentage24h float64   `json:"priceChangePercentage24h"`
	MarketCapRank            int       `json:"marketCapRank"`
	LastUpdated              time.Time `json:"lastUpdated"`
}

type usdValue struct {
	USD float64 `json:"usd"`
}

// coinResponse is the part of /coins/{id} we read
type coinResponse struct {
	MarketData struct {
		CurrentPrice             usdValue `json:"current_price"`
		TotalVolume              usdValue `json:"total_volume"`
		MarketCap                usdValue `json:"market_cap"`
		PriceChangePercentage24h float64  `json:"price_change_percentage_24h"`
		MarketCapRank            int      `json:"market_cap_rank"`
	} `json:"market_data"`
	LastUpdated time.Time `json:"last_updated"`
}

// Client is a minimal CoinGecko client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CoinInfo fetches the market summary of coin id
func (c *Client) CoinInfo(ctx context.Context, id string) (CoinInfo, error) {
	endpoint := c.baseURL + "/coins/" + url.PathEscape(id) +
		"?localization=false&tickers=false&community_data=false&developer_data=false"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CoinInfo{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CoinInfo{}, fmt.Errorf("coin %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CoinInfo{}, fmt.Errorf("coin %s: failed to read response: %w", id, err)
	}
	if resp.StatusCode != http.StatusOK {
		return CoinInfo{}, fmt.Errorf("coin %s: HTTP error %d: %s", id, resp.StatusCode, string(body))
	}

	var parsed coinResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CoinInfo{}, fmt.Errorf("coin %s: failed to parse response: %w", id, err)
	}

	md := parsed.MarketData
	return CoinInfo{
		Price:                    md.CurrentPrice.USD,
		Volume24h:                md.TotalVolume.USD,
		MarketCap:                md.MarketCap.USD,
		PriceChangePercentage24h: md.PriceChangePercentage24h,
		MarketCapRank:            md.MarketCapRank,
		LastUpdated:              parsed.LastUpdated,
	}, nil
}
