package settle

import (
	"context"
	"sync/atomic"
)

type externalCallKey struct{}

// withExternalCall marks ctx as passed to an external capability
func withExternalCall(ctx context.Context) context.Context {
	return context.WithValue(ctx, externalCallKey{}, true)
}

func isInExternalCall(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	inCall, _ := ctx.Value(externalCallKey{}).(bool)
	return inCall
}

// externalCallGuard is set while the contract waits on a dex, market or
// transport. Any entry seen in that window is rejected instead of blocking
// on the writer lock held by the suspended call.
type externalCallGuard struct {
	active int32
}

func (g *externalCallGuard) isActive() bool {
	return atomic.LoadInt32(&g.active) != 0
}

// callExternal runs fn with a marked ctx and the guard raised
func (c *Contract) callExternal(ctx context.Context, fn func(ctx context.Context) error) error {
	atomic.StoreInt32(&c.external.active, 1)
	defer atomic.StoreInt32(&c.external.active, 0)
	return fn(withExternalCall(ctx))
}
