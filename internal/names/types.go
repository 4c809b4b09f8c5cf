// Package names resolves .sol domains through the Solana name service
package names

import (
	"context"
	"errors"
	"strings"

	"solexplorer/internal/solana"
)

// Feature names used in reports and watch subscriptions
const (
	FeatureUserDomains = "domains"
	FeatureDomainInfo  = "domainInfo"
)

const solSuffix = ".sol"

// ErrUnsupportedCluster is returned when user domains are requested on a cluster without a name registry
var ErrUnsupportedCluster = errors.New("name service unavailable on this cluster")

// ErrNotFound is returned by a Resolver when a domain or reverse record does not exist
var ErrNotFound = errors.New("domain not found")

// HasDomainSyntax reports whether value looks like a .sol domain
func HasDomainSyntax(value string) bool {
	return len(value) > len(solSuffix) && strings.HasSuffix(value, solSuffix)
}

// UserDomain is one domain owned by a wallet
type UserDomain struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// UserDomains is the cached value for a wallet
type UserDomains struct {
	Domains []UserDomain `json:"domains"`
}

// DomainInfo is the cached result of a domain lookup. The addresses are set only when Found.
type DomainInfo struct {
	Found         bool   `json:"found"`
	DomainAddress string `json:"domainAddress,omitempty"`
	OwnerAddress  string `json:"ownerAddress,omitempty"`
}

// Resolver performs name-service lookups
type Resolver interface {
	// Resolve returns the owner of domain
	Resolve(ctx context.Context, domain string) (string, error)
	// DomainKey returns the name account address of domain
	DomainKey(ctx context.Context, domain string) (string, error)
	// ReverseLookup returns the domain name, without suffix, stored for a name account
	ReverseLookup(ctx context.Context, address string) (string, error)
}

// RPC is the subset of the Solana client used to list name accounts
type RPC interface {
	GetProgramAccounts(ctx context.Context, programID string, filters ...solana.MemcmpFilter) ([]solana.ProgramAccount, error)
}

// DialFunc returns the RPC client for an endpoint URL
type DialFunc func(url string) RPC

// DefaultConcurrency bounds parallel reverse lookups when no limit is configured
const DefaultConcurrency = 8
