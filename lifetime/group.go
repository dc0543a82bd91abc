// Copyright (c) 2025 BVK Chaitanya

package lifetime

import (
	"context"
	"os"
	"sync"
	"time"
)

// Group runs background goroutines that share a common close context. Close
// cancels the context with os.ErrClosed and waits for all goroutines to
// return. Zero value is ready to use.
type Group struct {
	closeCtx  context.Context
	causeFunc context.CancelCauseFunc

	wg sync.WaitGroup

	once sync.Once
}

func (g *Group) init() {
	g.closeCtx, g.causeFunc = context.WithCancelCause(context.Background())
}

// Close cancels the group context and waits for the goroutines.
func (g *Group) Close() {
	g.once.Do(g.init)
	g.causeFunc(os.ErrClosed)
	g.wg.Wait()
}

// Dispose implements the Disposable interface.
func (g *Group) Dispose() {
	g.Close()
}

// Context returns the group's close context.
func (g *Group) Context() context.Context {
	g.once.Do(g.init)
	return g.closeCtx
}

// Go runs f in a new goroutine with the group's close context.
func (g *Group) Go(f func(ctx context.Context)) {
	g.once.Do(g.init)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f(g.closeCtx)
	}()
}

// Sleep blocks the caller for the given duration or till the context is
// canceled.
func Sleep(ctx context.Context, d time.Duration) {
	sctx, scancel := context.WithTimeout(ctx, d)
	<-sctx.Done()
	scancel()
}
