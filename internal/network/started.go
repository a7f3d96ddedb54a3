package network

import (
	"context"
	"net/http/httptrace"
	"sync"
)

type startedKey struct{}

// WithStarted returns a copy of ctx that makes PostJSON call fn once its
// request has been written to the connection, or once PostJSON gives up
// before getting that far. fn runs at most once.
func WithStarted(ctx context.Context, fn func()) context.Context {
	var once sync.Once
	return context.WithValue(ctx, startedKey{}, func() { once.Do(fn) })
}

// RequestStarted runs the hook installed by WithStarted, if any.
func RequestStarted(ctx context.Context) {
	if fn, ok := ctx.Value(startedKey{}).(func()); ok {
		fn()
	}
}

// traceStarted fires the hook when the request has been written.
func traceStarted(ctx context.Context) context.Context {
	if _, ok := ctx.Value(startedKey{}).(func()); !ok {
		return ctx
	}
	return httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) { RequestStarted(ctx) },
	})
}
