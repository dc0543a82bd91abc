// Copyright (c) 2025 BVK Chaitanya

package stream

import (
	"testing"
	"time"
)

func TestStreamDelivery(t *testing.T) {
	s := New[int]()
	defer s.Close()

	got := make(chan int, 10)
	sub, err := s.Subscribe(func(v int) { got <- v })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Dispose()

	if err := s.Publish(42); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-got:
		if v != 42 {
			t.Fatalf("want 42, got %d", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("value was not delivered")
	}

	if v, ok := s.Last(); !ok || v != 42 {
		t.Fatalf("want last value 42, got %d (%v)", v, ok)
	}
}

func TestStreamHook(t *testing.T) {
	var active int64
	s := NewWithHook[string](func(delta int64) { active += delta })
	defer s.Close()

	a, err := s.Subscribe(func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Subscribe(func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	if active != 2 || s.Active() != 2 {
		t.Fatalf("want 2 active subscriptions, got %d", active)
	}

	a.Dispose()
	a.Dispose()
	b.Dispose()
	if active != 0 || s.Active() != 0 {
		t.Fatalf("want 0 active subscriptions, got %d", active)
	}
	if s.Total() != 2 {
		t.Fatalf("want 2 subscriptions in total, got %d", s.Total())
	}
}

func TestStreamClosed(t *testing.T) {
	s := New[int]()
	sub, err := s.Subscribe(func(int) {})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	sub.Dispose()

	if _, err := s.Subscribe(func(int) {}); err == nil {
		t.Fatalf("subscribe on a closed stream must fail")
	}
	if err := s.Publish(1); err == nil {
		t.Fatalf("publish on a closed stream must fail")
	}
}

func TestEventsDeliverEveryValue(t *testing.T) {
	s := NewEvents[int]()
	defer s.Close()

	gate := make(chan struct{})
	got := make(chan int, 10)
	sub, err := s.Subscribe(func(v int) {
		<-gate
		got <- v
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Dispose()

	for i := 1; i <= 5; i++ {
		if err := s.Publish(i); err != nil {
			t.Fatal(err)
		}
	}
	close(gate)

	for want := 1; want <= 5; want++ {
		select {
		case v := <-got:
			if v != want {
				t.Fatalf("want %d, got %d", want, v)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("event %d was not delivered", want)
		}
	}
}

func TestValuesKeepLatest(t *testing.T) {
	s := New[int]()
	defer s.Close()

	gate := make(chan struct{})
	got := make(chan int, 10)
	sub, err := s.Subscribe(func(v int) {
		<-gate
		got <- v
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Dispose()

	for i := 1; i <= 5; i++ {
		if err := s.Publish(i); err != nil {
			t.Fatal(err)
		}
	}
	close(gate)

	last := 0
	for last != 5 {
		select {
		case v := <-got:
			if v <= last {
				t.Fatalf("values out of order: %d after %d", v, last)
			}
			last = v
		case <-time.After(5 * time.Second):
			t.Fatalf("latest value was not delivered")
		}
	}
}
