package pubsub

import "context"

// Context utilities for scoped namespaces.
// Keep type unexported and expose the key as exported constant to avoid collisions
// while still allowing other packages to use the exact key value.
type ctxKey string

// CtxKeyNamespaceScope is the context key holding the active namespace scope.
const CtxKeyNamespaceScope ctxKey = "hermes_ns_scope"

// namespaceScope is one frame of the namespace stack. Frames are immutable,
// so leaving a scope is simply going back to the parent context.
type namespaceScope struct {
	ns     string
	parent *namespaceScope
	depth  int
}

// WithNamespace returns a context whose active namespace is ns. The previous
// namespace stays on the stack and becomes active again with the parent ctx.
func WithNamespace(ctx context.Context, ns string) context.Context {
	parent := scopeFrom(ctx)
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	return context.WithValue(ctx, CtxKeyNamespaceScope, &namespaceScope{ns: ns, parent: parent, depth: depth})
}

// NamespaceFrom returns the active namespace of ctx and whether a scope is active.
func NamespaceFrom(ctx context.Context) (string, bool) {
	s := scopeFrom(ctx)
	if s == nil {
		return "", false
	}
	return s.ns, true
}

// NamespaceStack returns the active scopes of ctx, outermost first.
func NamespaceStack(ctx context.Context) []string {
	s := scopeFrom(ctx)
	if s == nil {
		return nil
	}
	out := make([]string, s.depth)
	for f := s; f != nil; f = f.parent {
		out[f.depth-1] = f.ns
	}
	return out
}

func scopeFrom(ctx context.Context) *namespaceScope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(CtxKeyNamespaceScope).(*namespaceScope)
	return s
}
