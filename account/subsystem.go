// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/bvk/watchlist/gobs"
	"github.com/bvk/watchlist/kvutil"
	"github.com/bvk/watchlist/lifetime"
	"github.com/bvk/watchlist/stream"
	"github.com/bvkgo/kv"
	"github.com/shopspring/decimal"
)

const DefaultKeyspace = "/accounts/"

// PositionUpdate describes a change to an account position.
type PositionUpdate struct {
	Account  *Account
	Currency string
	Amount   decimal.Decimal
}

// Subsystem holds all accounts. When a database is configured, account
// changes are persisted under DefaultKeyspace.
type Subsystem struct {
	db kv.Database

	initMu sync.Mutex

	mu sync.Mutex

	ready bool

	accountMap map[string]*Account

	positionUpdates *stream.Stream[*PositionUpdate]
	addedAccounts   *stream.Stream[*Account]
	removedAccounts *stream.Stream[*Account]
}

// New creates an account subsystem. Database can be nil, in which case
// accounts only live in memory.
func New(db kv.Database) *Subsystem {
	return &Subsystem{
		db:              db,
		accountMap:      make(map[string]*Account),
		positionUpdates: stream.NewEvents[*PositionUpdate](),
		addedAccounts:   stream.NewEvents[*Account](),
		removedAccounts: stream.NewEvents[*Account](),
	}
}

// Close closes the notification streams.
func (s *Subsystem) Close() {
	s.positionUpdates.Close()
	s.addedAccounts.Close()
	s.removedAccounts.Close()
}

// Initialize loads the persisted accounts once.
func (s *Subsystem) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.Ready() {
		return nil
	}

	var states []*gobs.AccountState
	if s.db != nil {
		begin, end := kvutil.PathRange(DefaultKeyspace)
		collect := func(_ context.Context, _ kv.Reader, key string, state *gobs.AccountState) error {
			states = append(states, state)
			return nil
		}
		if err := kvutil.AscendDB(ctx, s.db, begin, end, collect); err != nil {
			return fmt.Errorf("could not load accounts: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, state := range states {
		s.accountMap[state.Name] = newAccount(state)
	}
	s.ready = true
	slog.Info("account subsystem is initialized", "accounts", len(states))
	return nil
}

func (s *Subsystem) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Accounts returns all accounts sorted by name.
func (s *Subsystem) Accounts() []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	var as []*Account
	for _, a := range s.accountMap {
		as = append(as, a)
	}
	slices.SortFunc(as, func(a, b *Account) int { return strings.Compare(a.Name(), b.Name()) })
	return as
}

// Exchange returns the accounts on an exchange.
func (s *Subsystem) Exchange(name string) []*Account {
	var as []*Account
	for _, a := range s.Accounts() {
		if strings.EqualFold(a.Exchange(), name) {
			as = append(as, a)
		}
	}
	return as
}

// Position returns the sum of currency positions over all accounts of an
// exchange.
func (s *Subsystem) Position(exchange, currency string) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range s.Exchange(exchange) {
		sum = sum.Add(a.Asset(currency))
	}
	return sum
}

func (s *Subsystem) Get(name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accountMap[name]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", name, os.ErrNotExist)
	}
	return a, nil
}

func (s *Subsystem) save(ctx context.Context, state *gobs.AccountState) error {
	if s.db == nil {
		return nil
	}
	key := path.Join(DefaultKeyspace, state.Name)
	if err := kvutil.SetDB(ctx, s.db, key, state); err != nil {
		return fmt.Errorf("could not save account %q: %w", state.Name, err)
	}
	return nil
}

// AddAccount creates a new account on an exchange.
func (s *Subsystem) AddAccount(ctx context.Context, name, exchange string) (*Account, error) {
	if len(name) == 0 || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid account name %q: %w", name, os.ErrInvalid)
	}
	if len(exchange) == 0 {
		return nil, fmt.Errorf("exchange name cannot be empty: %w", os.ErrInvalid)
	}

	s.mu.Lock()
	if _, ok := s.accountMap[name]; ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("account %q: %w", name, os.ErrExist)
	}
	state := &gobs.AccountState{
		Name:     name,
		Exchange: strings.ToLower(exchange),
	}
	a := newAccount(state)
	s.accountMap[name] = a
	s.mu.Unlock()

	if err := s.save(ctx, state); err != nil {
		s.mu.Lock()
		delete(s.accountMap, name)
		s.mu.Unlock()
		return nil, err
	}

	if err := s.addedAccounts.Publish(a); err != nil {
		slog.Warn("could not publish account added notification (ignored)", "account", a, "err", err)
	}
	return a, nil
}

// DestroyAccount removes an account and its positions.
func (s *Subsystem) DestroyAccount(ctx context.Context, name string) error {
	a, err := s.Get(name)
	if err != nil {
		return err
	}

	if s.db != nil {
		key := path.Join(DefaultKeyspace, name)
		del := func(ctx context.Context, rw kv.ReadWriter) error {
			return rw.Delete(ctx, key)
		}
		if err := kv.WithReadWriter(ctx, s.db, del); err != nil {
			return fmt.Errorf("could not delete account %q: %w", name, err)
		}
	}

	s.mu.Lock()
	delete(s.accountMap, name)
	s.mu.Unlock()

	if err := s.removedAccounts.Publish(a); err != nil {
		slog.Warn("could not publish account destroyed notification (ignored)", "account", a, "err", err)
	}
	return nil
}

// SetPosition updates the position of a currency in an account.
func (s *Subsystem) SetPosition(ctx context.Context, name, currency string, amount decimal.Decimal) error {
	if len(currency) == 0 {
		return fmt.Errorf("currency cannot be empty: %w", os.ErrInvalid)
	}
	a, err := s.Get(name)
	if err != nil {
		return err
	}

	old := a.Asset(currency)
	state := a.setAsset(currency, amount)
	if err := s.save(ctx, state); err != nil {
		a.setAsset(currency, old)
		return err
	}

	update := &PositionUpdate{
		Account:  a,
		Currency: strings.ToUpper(currency),
		Amount:   amount,
	}
	if err := s.positionUpdates.Publish(update); err != nil {
		slog.Warn("could not publish position update (ignored)", "account", a, "err", err)
	}
	return nil
}

// OnDidUpdatePosition registers fn for position changes.
func (s *Subsystem) OnDidUpdatePosition(fn func(*PositionUpdate)) (lifetime.Disposable, error) {
	return s.positionUpdates.Subscribe(fn)
}

// OnDidAddAccount registers fn for new accounts.
func (s *Subsystem) OnDidAddAccount(fn func(*Account)) (lifetime.Disposable, error) {
	return s.addedAccounts.Subscribe(fn)
}

// OnDidDestroyAccount registers fn for removed accounts.
func (s *Subsystem) OnDidDestroyAccount(fn func(*Account)) (lifetime.Disposable, error) {
	return s.removedAccounts.Subscribe(fn)
}
