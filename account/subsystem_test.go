// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
)

func TestPositionSum(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	defer s.Close()
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"main", "savings"} {
		if _, err := s.AddAccount(ctx, name, "Coinbase"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.AddAccount(ctx, "other", "kraken"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddAccount(ctx, "main", "coinbase"); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist for duplicate account, got %v", err)
	}

	if err := s.SetPosition(ctx, "main", "btc", decimal.RequireFromString("0.5")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPosition(ctx, "savings", "BTC", decimal.RequireFromString("1.25")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPosition(ctx, "other", "BTC", decimal.NewFromInt(10)); err != nil {
		t.Fatal(err)
	}

	if p := s.Position("coinbase", "BTC"); !p.Equal(decimal.RequireFromString("1.75")) {
		t.Fatalf("want position 1.75, got %s", p)
	}
	if p := s.Position("coinbase", "ETH"); !p.IsZero() {
		t.Fatalf("want zero position, got %s", p)
	}
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	s1 := New(db)
	if err := s1.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s1.AddAccount(ctx, "main", "coinbase"); err != nil {
		t.Fatal(err)
	}
	if err := s1.SetPosition(ctx, "main", "USD", decimal.NewFromInt(250)); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2 := New(db)
	defer s2.Close()
	if err := s2.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	a, err := s2.Get("main")
	if err != nil {
		t.Fatal(err)
	}
	if p := a.Asset("usd"); !p.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("want 250 USD after reload, got %s", p)
	}

	if err := s2.DestroyAccount(ctx, "main"); err != nil {
		t.Fatal(err)
	}
	s3 := New(db)
	defer s3.Close()
	if err := s3.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(s3.Accounts()); n != 0 {
		t.Fatalf("want no accounts after destroy, got %d", n)
	}
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	defer s.Close()

	added := make(chan *Account, 1)
	updated := make(chan *PositionUpdate, 1)
	removed := make(chan *Account, 1)

	d1, err := s.OnDidAddAccount(func(a *Account) { added <- a })
	if err != nil {
		t.Fatal(err)
	}
	defer d1.Dispose()
	d2, err := s.OnDidUpdatePosition(func(u *PositionUpdate) { updated <- u })
	if err != nil {
		t.Fatal(err)
	}
	defer d2.Dispose()
	d3, err := s.OnDidDestroyAccount(func(a *Account) { removed <- a })
	if err != nil {
		t.Fatal(err)
	}
	defer d3.Dispose()

	if _, err := s.AddAccount(ctx, "main", "coinbase"); err != nil {
		t.Fatal(err)
	}
	wait(t, added)

	if err := s.SetPosition(ctx, "main", "eth", decimal.NewFromInt(3)); err != nil {
		t.Fatal(err)
	}
	if u := wait(t, updated); u.Currency != "ETH" {
		t.Fatalf("want ETH update, got %s", u.Currency)
	}

	if err := s.DestroyAccount(ctx, "main"); err != nil {
		t.Fatal(err)
	}
	wait(t, removed)
}

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("notification was not delivered")
	}
	var zero T
	return zero
}

func TestAccountEventsAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	defer s.Close()

	added := make(chan *Account, 10)
	removed := make(chan *Account, 10)

	d1, err := s.OnDidAddAccount(func(a *Account) {
		time.Sleep(5 * time.Millisecond)
		added <- a
	})
	if err != nil {
		t.Fatal(err)
	}
	defer d1.Dispose()
	d2, err := s.OnDidDestroyAccount(func(a *Account) {
		time.Sleep(5 * time.Millisecond)
		removed <- a
	})
	if err != nil {
		t.Fatal(err)
	}
	defer d2.Dispose()

	names := []string{"one", "two", "three"}
	for _, name := range names {
		if _, err := s.AddAccount(ctx, name, "coinbase"); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range names {
		if a := wait(t, added); a.Name() != name {
			t.Fatalf("want added account %s, got %s", name, a.Name())
		}
	}

	for _, name := range names {
		if err := s.DestroyAccount(ctx, name); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range names {
		if a := wait(t, removed); a.Name() != name {
			t.Fatalf("want destroyed account %s, got %s", name, a.Name())
		}
	}
}
