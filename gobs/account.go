// Copyright (c) 2025 BVK Chaitanya

package gobs

import "github.com/shopspring/decimal"

// AccountState is the persisted state of a local trading account.
type AccountState struct {
	Name     string
	Exchange string

	// Positions holds the asset balances keyed by upper-case currency name.
	Positions map[string]decimal.Decimal
}
