package router

import (
	"context"
	"strings"
	"weak"

	"go.uber.org/atomic"

	"github.com/zjrosen/waypoint/internal/log"
)

// Node is a router's position in the hierarchy.
type Node struct {
	name  string
	env   Env
	owner Router

	parent    weak.Pointer[Node]
	hasParent bool
	children  []*Node

	started bool
	closed  atomic.Bool

	// changed holds at most one pending signal for the observation loop.
	changed chan struct{}
	cancel  context.CancelFunc
}

// NewNode creates an unstarted node named name.
func NewNode(name string, env Env) *Node {
	if env.Logger == nil {
		env.Logger = log.Default()
	}
	return &Node{
		name:    name,
		env:     env,
		changed: make(chan struct{}, 1),
		cancel:  func() {},
	}
}

// Name returns the router type name used in records.
func (n *Node) Name() string { return n.name }

// Env returns the environment the node was created with.
func (n *Node) Env() Env { return n.env }

// Owner returns the router bound by Start.
func (n *Node) Owner() Router { return n.owner }

// Closed reports whether Close has run.
func (n *Node) Closed() bool { return n.closed.Load() }

// Parent returns the owning node, or nil for a root, a node whose parent has
// been closed, or one whose parent has been collected.
func (n *Node) Parent() *Node {
	if !n.hasParent {
		return nil
	}
	p := n.parent.Value()
	if p == nil || p.Closed() {
		return nil
	}
	return p
}

// Children returns the adopted children in adoption order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// FindRoot follows parent links to the top of the hierarchy.
func (n *Node) FindRoot() *Node {
	cur := n
	for {
		p := cur.Parent()
		if p == nil {
			return cur
		}
		cur = p
	}
}

// Path returns the slash separated names from the root to n,
// e.g. "RootRouter/TabsRouter/TabCRouter".
func (n *Node) Path() string {
	var names []string
	for cur := n; cur != nil; cur = cur.Parent() {
		names = append(names, cur.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// Adopt makes n the parent of every child. The children must already be
// started and parentless, and n itself must be started.
func (n *Node) Adopt(children ...Router) {
	if !n.started {
		panic("router: " + n.name + " adopted children before Start")
	}
	for _, r := range children {
		c := r.Node()
		switch {
		case c == n:
			panic("router: " + n.name + " cannot adopt itself")
		case !c.started:
			panic("router: " + n.name + " adopted unstarted child " + c.name)
		case c.Closed():
			panic("router: " + n.name + " adopted closed child " + c.name)
		case c.hasParent:
			panic("router: " + c.name + " already has a parent")
		}
		for anc := n.Parent(); anc != nil; anc = anc.Parent() {
			if anc == c {
				panic("router: adopting " + c.name + " would create a cycle")
			}
		}

		c.parent = weak.Make(n)
		c.hasParent = true
		n.children = append(n.children, c)
		c.env.Logger.Lifecycle(c.name, "attached", "parent", n.name)
	}
}

// Close closes the children in reverse adoption order, stops observation and
// marks n closed. Later calls are no-ops.
func (n *Node) Close() {
	if !n.closed.CompareAndSwap(false, true) {
		return
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		n.children[i].Close()
	}
	n.cancel()
	n.env.Logger.Lifecycle(n.name, "closed")
}

// signal wakes the observation loop. Signals sent while one is already
// pending are folded into it.
func (n *Node) signal() {
	if n.Closed() {
		return
	}
	select {
	case n.changed <- struct{}{}:
	default:
	}
}
