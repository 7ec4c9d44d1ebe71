package repository

import (
	"context"
	"time"
)

// Per-operation timeout budgets. Sequence creation inserts the header row
// plus every stage email in one transaction, so it gets the largest budget.
const (
	lookupTimeout = 5 * time.Second
	scanTimeout   = 10 * time.Second
	writeTimeout  = 10 * time.Second
	txTimeout     = 30 * time.Second
)

// scoped bounds ctx by d unless the caller's deadline is already tighter.
func scoped(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
