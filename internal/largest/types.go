// Package largest fetches and caches the largest token accounts of a mint
package largest

import (
	"context"

	"solexplorer/internal/solana"
)

// Feature is the name used in reports and watch subscriptions
const Feature = "largest"

// TokenAccount is one holder of a mint. Owner is empty when it could not be resolved.
type TokenAccount struct {
	UIAmountString string `json:"uiAmountString"`
	Address        string `json:"address"`
	// Owner is the wallet holding the token account, not the token program that owns it
	Owner string `json:"owner,omitempty"`
}

// LargestAccounts is the cached value for a mint
type LargestAccounts struct {
	Largest []TokenAccount `json:"largest"`
}

// RPC is the subset of the Solana client the fetcher needs
type RPC interface {
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]solana.TokenAmount, error)
	GetAccountInfo(ctx context.Context, address string) (*solana.AccountInfo, error)
}

// DialFunc returns the RPC client for an endpoint URL
type DialFunc func(url string) RPC

// DefaultConcurrency bounds parallel owner lookups when no limit is configured
const DefaultConcurrency = 8
