package pubsub

import (
	"context"
	"testing"
)

func TestNamespaceScopes(t *testing.T) {
	root := context.Background()
	if _, ok := NamespaceFrom(root); ok {
		t.Fatal("background context must not carry a namespace")
	}

	outer := WithNamespace(root, "x")
	inner := WithNamespace(outer, "y")

	if ns, _ := NamespaceFrom(inner); ns != "y" {
		t.Errorf("expected inner namespace y, got %q", ns)
	}
	if ns, _ := NamespaceFrom(outer); ns != "x" {
		t.Errorf("expected outer namespace x after inner scope, got %q", ns)
	}

	stack := NamespaceStack(inner)
	if len(stack) != 2 || stack[0] != "x" || stack[1] != "y" {
		t.Errorf("unexpected stack %v", stack)
	}
	if NamespaceStack(root) != nil {
		t.Error("expected empty stack on background context")
	}
}

func TestNamespaced(t *testing.T) {
	if got := Namespaced("ns:", "a"); got != "ns:a" {
		t.Errorf("expected ns:a, got %q", got)
	}
	if got := Namespaced("", "a"); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
}
