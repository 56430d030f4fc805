package router

// Tracked is a router field whose mutations trigger change observation,
// like the stack itself. Concrete routers declare one per piece of extra
// state they want reflected in DidChange.
type Tracked[T comparable] struct {
	node  *Node
	value T
}

// Track declares a tracked field on n with an initial value.
func Track[T comparable](n *Node, initial T) *Tracked[T] {
	return &Tracked[T]{node: n, value: initial}
}

// Get returns the current value.
func (t *Tracked[T]) Get() T { return t.value }

// Set stores v and signals the owning router. Setting the current value is
// not a change. Returns true if the value changed.
func (t *Tracked[T]) Set(v T) bool {
	if t.value == v {
		return false
	}
	t.value = v
	t.node.signal()
	return true
}
