package solana

import (
	"context"
	"encoding/json"
	"fmt"
)

// TokenAmount is one entry of getTokenLargestAccounts
type TokenAmount struct {
	Address        string   `json:"address"`
	Amount         string   `json:"amount"`
	Decimals       int      `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

// AccountInfo is the value of getAccountInfo with jsonParsed encoding
type AccountInfo struct {
	Lamports   uint64          `json:"lamports"`
	Owner      string          `json:"owner"`
	Executable bool            `json:"executable"`
	RentEpoch  uint64          `json:"rentEpoch"`
	Space      uint64          `json:"space"`
	Data       json.RawMessage `json:"data"`
}

// parsedAccountData is the jsonParsed data shape for program-owned accounts
type parsedAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Owner string `json:"owner"`
			Mint  string `json:"mint"`
		} `json:"info"`
	} `json:"parsed"`
}

// TokenOwner returns the wallet owning a parsed token account, if the data carries one
func (a *AccountInfo) TokenOwner() (string, bool) {
	var parsed parsedAccountData
	if err := json.Unmarshal(a.Data, &parsed); err != nil {
		// base64 encoded data arrives as an array
		return "", false
	}
	if parsed.Parsed.Info.Owner == "" {
		return "", false
	}
	return parsed.Parsed.Info.Owner, true
}

// ProgramAccount is one entry of getProgramAccounts
type ProgramAccount struct {
	Pubkey  string      `json:"pubkey"`
	Account AccountInfo `json:"account"`
}

// MemcmpFilter matches accounts whose data at Offset equals the base58 Bytes
type MemcmpFilter struct {
	Offset uint64 `json:"offset"`
	Bytes  string `json:"bytes"`
}

type programAccountsFilter struct {
	Memcmp MemcmpFilter `json:"memcmp"`
}

type rpcContextValue[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

// GetTokenLargestAccounts returns the largest holders of mint
func (c *Client) GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAmount, error) {
	if err := ValidateAddress(mint); err != nil {
		return nil, err
	}

	var result rpcContextValue[[]TokenAmount]
	params := []interface{}{mint, map[string]string{"commitment": CommitmentConfirmed}}
	if err := c.call(ctx, "getTokenLargestAccounts", params, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// GetAccountInfo returns the jsonParsed account at address.
// ErrAccountNotFound is returned when the account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	var result rpcContextValue[*AccountInfo]
	params := []interface{}{address, map[string]string{
		"commitment": CommitmentConfirmed,
		"encoding":   "jsonParsed",
	}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("getAccountInfo %s: %w", address, ErrAccountNotFound)
	}
	return result.Value, nil
}

// GetProgramAccounts returns the accounts owned by programID matching every filter.
// Account data is not requested; callers receive pubkeys and account metadata only.
func (c *Client) GetProgramAccounts(ctx context.Context, programID string, filters ...MemcmpFilter) ([]ProgramAccount, error) {
	if err := ValidateAddress(programID); err != nil {
		return nil, err
	}

	rpcFilters := make([]programAccountsFilter, 0, len(filters))
	for _, f := range filters {
		rpcFilters = append(rpcFilters, programAccountsFilter{Memcmp: f})
	}

	params := []interface{}{programID, map[string]interface{}{
		"commitment": CommitmentConfirmed,
		"encoding":   "base64",
		"dataSlice":  map[string]int{"offset": 0, "length": 0},
		"filters":    rpcFilters,
	}}

	var result []ProgramAccount
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
