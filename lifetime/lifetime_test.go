// Copyright (c) 2025 BVK Chaitanya

package lifetime

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
)

func TestCompositeDisposeOnce(t *testing.T) {
	var a, b atomic.Int32
	c := NewComposite(
		Func(func() { a.Add(1) }),
		Func(func() { b.Add(1) }),
		nil,
	)
	if n := c.Len(); n != 2 {
		t.Fatalf("want 2 disposables, got %d", n)
	}

	c.Dispose()
	c.Dispose()

	if a.Load() != 1 || b.Load() != 1 {
		t.Fatalf("want each disposable released once, got %d and %d", a.Load(), b.Load())
	}
	if !c.Disposed() {
		t.Fatalf("composite must report disposed")
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("disposed composite still holds %d items", n)
	}
}

func TestCompositeAddAfterDispose(t *testing.T) {
	var n atomic.Int32
	var c Composite
	c.Dispose()

	c.Add(Func(func() { n.Add(1) }))
	if n.Load() != 1 {
		t.Fatalf("late addition must be released immediately")
	}
}

func TestOnce(t *testing.T) {
	var n int
	d := Once(func() { n++ })
	d.Dispose()
	d.Dispose()
	if n != 1 {
		t.Fatalf("want 1 call, got %d", n)
	}
}

func TestGroup(t *testing.T) {
	var g Group

	var done atomic.Int32
	for i := 0; i < 100; i++ {
		g.Go(func(ctx context.Context) {
			<-ctx.Done()
			done.Add(1)
		})
	}

	g.Close()
	if n := done.Load(); n != 100 {
		t.Fatalf("want 100 goroutines to finish, got %d", n)
	}
	if err := context.Cause(g.Context()); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want os.ErrClosed cause, got %v", err)
	}
}
