// Package tool holds helpers shared by the agent tool sets.
package tool

import "context"

// ProgressFunc receives human readable progress lines while a tool runs
type ProgressFunc func(ctx context.Context, message string)

type progressKey struct{}

// WithProgress attaches fn to ctx so tools can report what they are doing
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progress reports message through the ProgressFunc in ctx. Without one it
// does nothing.
func Progress(ctx context.Context, message string) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(ctx, message)
	}
}
