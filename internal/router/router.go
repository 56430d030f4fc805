// Package router implements the navigation router tree.
//
// Every router owns a Node, which carries its place in the hierarchy, its
// lifecycle and its change-observation loop, and usually embeds a Base that
// owns a navigation stack. Routers are built in two phases: each router is
// constructed and started on its own, then the owner adopts its children.
// Parents are referenced weakly; only ownership (parent to child) is strong.
//
// All router methods must be called from the execution context passed in
// Env. Only the observation goroutines run elsewhere, and they touch nothing
// but channels, timers and atomics.
package router

import (
	"time"

	"github.com/zjrosen/waypoint/internal/flags"
	"github.com/zjrosen/waypoint/internal/log"
)

// DefaultCoalesce is the window in which mutations are folded into a single
// change notification.
const DefaultCoalesce = 50 * time.Millisecond

// Executor runs functions serially on the execution context that owns all
// router state. mainloop.Queue satisfies it.
type Executor interface {
	Post(fn func()) bool
}

// Env is what every router needs from its surroundings.
type Env struct {
	Logger *log.Logger

	// Executor receives DidChange hooks. A nil Executor disables observation.
	Executor Executor

	// Coalesce overrides DefaultCoalesce when positive.
	Coalesce time.Duration

	Flags *flags.Registry
}

func (e Env) coalesce() time.Duration {
	if e.Coalesce > 0 {
		return e.Coalesce
	}
	return DefaultCoalesce
}

// Router is the capability every node in the hierarchy exposes.
type Router interface {
	// Node returns the router's hierarchy node.
	Node() *Node

	// DidChange runs on the execution context once per coalesced batch of
	// mutations to the router's tracked state.
	DidChange()
}

// Start finishes construction of r: it binds r to its node, emits the
// opened record and starts observation. Start must be called exactly once,
// after r's own fields are initialized and before r adopts any children.
func Start(r Router) {
	n := r.Node()
	if n == nil {
		panic("router: Start called on a router without a node")
	}
	if n.started {
		panic("router: " + n.name + " started twice")
	}
	n.owner = r
	n.started = true
	n.env.Logger.Lifecycle(n.name, "opened")

	if n.env.Executor != nil {
		n.observe()
	}
}

// RootOf walks up from r and returns the root router as T.
func RootOf[T Router](r Router) (T, bool) {
	root := r.Node().FindRoot()
	t, ok := root.owner.(T)
	return t, ok
}

// Walk calls fn for r and every open descendant, parents before children in
// adoption order.
func Walk(r Router, fn func(Router)) {
	walkNode(r.Node(), fn)
}

func walkNode(n *Node, fn func(Router)) {
	if n.Closed() {
		return
	}
	fn(n.owner)
	for _, child := range n.children {
		walkNode(child, fn)
	}
}
