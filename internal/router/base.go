package router

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/waypoint/internal/destination"
	"github.com/zjrosen/waypoint/internal/flags"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/navstack"
)

// Base is the stack-owning part of a router. Concrete routers embed *Base
// parameterized by their destination union and call Start on themselves.
type Base[D destination.Destination] struct {
	node     *Node
	stack    *navstack.Stack
	registry *destination.Registry[D]

	lastDescription string
}

// NewBase creates the node and empty stack for a router named name.
// Panics if registry is nil.
func NewBase[D destination.Destination](name string, registry *destination.Registry[D], env Env) *Base[D] {
	if registry == nil {
		panic("router: " + name + " has no destination registry")
	}
	return &Base[D]{
		node:            NewNode(name, env),
		stack:           navstack.New(),
		registry:        registry,
		lastDescription: "empty",
	}
}

// Node implements Router.
func (b *Base[D]) Node() *Node { return b.node }

// DidChange implements Router by emitting the stack description.
func (b *Base[D]) DidChange() { b.EmitChange() }

func (b *Base[D]) Name() string { return b.node.name }

func (b *Base[D]) Registry() *destination.Registry[D] { return b.registry }

func (b *Base[D]) Adopt(children ...Router) { b.node.Adopt(children...) }

func (b *Base[D]) Close() { b.node.Close() }

func (b *Base[D]) logger() *log.Logger { return b.node.env.Logger }

// Navigate pushes d.
func (b *Base[D]) Navigate(d D) {
	b.logger().Navigation(b.Name(), fmt.Sprintf("navigation push -> %v", d), "kind", d.Kind(), "id", d.ID())
	b.stack.Push(d)
	b.node.signal()
	b.logState()
}

// NavigateBack pops the top destination. On an empty stack it reports an
// error record and returns false.
func (b *Base[D]) NavigateBack() bool {
	if b.stack.IsEmpty() {
		b.logger().Error(b.Name(), "attempted to navigate back on empty path")
		return false
	}
	if current, ok := b.CurrentDestination(); ok {
		b.logger().Navigation(b.Name(), fmt.Sprintf("navigating back from %v", current))
	}
	b.stack.Pop(1)
	b.node.signal()
	b.logState()
	return true
}

// PopToRoot empties the stack and returns how many entries were removed.
func (b *Base[D]) PopToRoot() int {
	b.logger().Navigation(b.Name(), fmt.Sprintf("popping to root from path with %d items", b.stack.Len()))
	removed := b.stack.Pop(b.stack.Len())
	if removed > 0 {
		b.node.signal()
	}
	b.logState()
	return removed
}

// CurrentDestination returns the top of the stack. ok is false when the
// stack is empty or undecodable.
func (b *Base[D]) CurrentDestination() (D, bool) {
	return navstack.Last(b.stack, b.registry)
}

// Contains reports whether a destination with d's ID is on the stack.
// An undecodable stack reports an error record and returns false.
func (b *Base[D]) Contains(d D) bool {
	found, err := navstack.Contains(b.stack, b.registry, d)
	if err != nil {
		b.logger().ErrorErr(b.Name(), "failed to decode path while checking for item", err, "id", d.ID())
		return false
	}
	b.logger().Info(b.Name(), "checked for item in path", "id", d.ID(), "found", found)
	return found
}

// Decoded returns the typed stack, oldest first. ok is false when the stack
// is undecodable.
func (b *Base[D]) Decoded() ([]D, bool) {
	decoded, err := navstack.Decode(b.stack, b.registry)
	return decoded, err == nil
}

// Decodable reports whether the stack can be read with the router's registry.
func (b *Base[D]) Decodable() bool {
	_, err := navstack.Decode(b.stack, b.registry)
	return err == nil
}

func (b *Base[D]) Describe() string { return navstack.Describe(b.stack, b.registry) }

func (b *Base[D]) IsEmpty() bool { return b.stack.IsEmpty() }

func (b *Base[D]) Len() int { return b.stack.Len() }

// MarshalStack encodes the stack as JSON envelopes.
func (b *Base[D]) MarshalStack() ([]byte, error) {
	return json.Marshal(b.stack)
}

// RestoreStack replaces the stack with a snapshot produced by MarshalStack.
//
// Malformed snapshots are rejected and leave the stack unchanged. A
// well-formed snapshot holding destinations this router no longer knows is
// accepted; the stack is then undecodable and an error record says so.
func (b *Base[D]) RestoreStack(data []byte) error {
	if err := json.Unmarshal(data, b.stack); err != nil {
		return fmt.Errorf("restoring %s stack: %w", b.Name(), err)
	}
	if _, err := navstack.Decode(b.stack, b.registry); err != nil {
		b.logger().ErrorErr(b.Name(), "restored path is undecodable", err, "items", b.stack.Len())
	}
	b.node.signal()
	return nil
}

// EmitChange writes the state record for the current stack. extra key/value
// pairs are appended after the path field. With the change-diff flag on, the
// record also carries the diff against the previously emitted description.
func (b *Base[D]) EmitChange(extra ...any) {
	desc := b.Describe()
	fields := append([]any{"path", desc}, extra...)
	if b.node.env.Flags.Enabled(flags.FlagChangeDiff) {
		fields = append(fields, "diff", describeDiff(b.lastDescription, desc))
	}
	b.lastDescription = desc
	b.logger().State(b.Name(), "path changed: "+desc, fields...)
}

// logState reports the stack right after a navigation call, ahead of the
// coalesced change notification.
func (b *Base[D]) logState() {
	b.logger().State(b.Name(), "current path: ["+b.Describe()+"]")
}
