package logging

import "context"

type xidKey struct{}

// WithXid stashes a correlation id on ctx for every *Context logging call
// downstream to pick up, the way osrfLogSetXid makes one id visible to
// every subsequent log statement for the frame it was minted for.
func WithXid(ctx context.Context, xid string) context.Context {
	return context.WithValue(ctx, xidKey{}, xid)
}

// XidFromContext retrieves the correlation id stashed by WithXid, if any.
func XidFromContext(ctx context.Context) (string, bool) {
	xid, ok := ctx.Value(xidKey{}).(string)
	return xid, ok && xid != ""
}
