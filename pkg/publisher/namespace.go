package publisher

import (
	"context"

	"github.com/DeBrosOfficial/hermes/pkg/pubsub"
)

// WithNamespace returns a context publishing under ns.
func WithNamespace(ctx context.Context, ns string) context.Context {
	return pubsub.WithNamespace(ctx, ns)
}

// NamespaceStack returns the scopes active on ctx, outermost first.
func NamespaceStack(ctx context.Context) []string {
	return pubsub.NamespaceStack(ctx)
}

// InNamespace runs fn with ns as the active namespace. Nested scopes replace
// the outer namespace rather than extending it. The scope lives only in the
// context handed to fn, so ctx itself is never modified, even if fn panics.
func InNamespace(ctx context.Context, ns string, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(pubsub.WithNamespace(ctx, ns))
}
