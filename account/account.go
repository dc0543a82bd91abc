// Copyright (c) 2025 BVK Chaitanya

// Package account implements the local account subsystem that tracks asset
// positions per exchange account.
package account

import (
	"maps"
	"strings"
	"sync"

	"github.com/bvk/watchlist/gobs"
	"github.com/shopspring/decimal"
)

type Account struct {
	mu sync.Mutex

	state *gobs.AccountState
}

func newAccount(state *gobs.AccountState) *Account {
	if state.Positions == nil {
		state.Positions = make(map[string]decimal.Decimal)
	}
	return &Account{state: state}
}

func (a *Account) String() string {
	return "account:" + a.state.Name
}

func (a *Account) Name() string {
	return a.state.Name
}

func (a *Account) Exchange() string {
	return a.state.Exchange
}

// Asset returns the position for a currency. Unknown currencies have a zero
// position.
func (a *Account) Asset(currency string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Positions[strings.ToUpper(currency)]
}

// Positions returns a copy of all positions.
func (a *Account) Positions() map[string]decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.state.Positions)
}

func (a *Account) setAsset(currency string, amount decimal.Decimal) *gobs.AccountState {
	a.mu.Lock()
	defer a.mu.Unlock()

	ccy := strings.ToUpper(currency)
	if amount.IsZero() {
		delete(a.state.Positions, ccy)
	} else {
		a.state.Positions[ccy] = amount
	}
	return &gobs.AccountState{
		Name:      a.state.Name,
		Exchange:  a.state.Exchange,
		Positions: maps.Clone(a.state.Positions),
	}
}
