package main

import "context"

// AnonymousCaller is the identity of unauthenticated requests when anonymous
// access is enabled.
const AnonymousCaller = "anonymous"

// callerContextKey is the context key for the resolved caller identity.
type callerContextKey struct{}

// WithCaller stores the caller identity in ctx.
func WithCaller(ctx context.Context, caller string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller identity stored in ctx.
func CallerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	caller, _ := ctx.Value(callerContextKey{}).(string)
	return caller
}
