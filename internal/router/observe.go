package router

import (
	"context"
	"runtime"
	"time"
	"weak"

	"github.com/zjrosen/waypoint/internal/log"
)

// observe starts the observation loop for n. The loop keeps only a weak
// reference to n, so a router dropped without Close is still collected; the
// cleanup registered here then cancels the loop.
func (n *Node) observe() {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	runtime.AddCleanup(n, func(cancel context.CancelFunc) { cancel() }, cancel)

	go observeLoop(ctx, observation{
		ref:     weak.Make(n),
		changed: n.changed,
		exec:    n.env.Executor,
		delay:   n.env.coalesce(),
		logger:  n.env.Logger,
	})
}

type observation struct {
	ref     weak.Pointer[Node]
	changed chan struct{}
	exec    Executor
	delay   time.Duration
	logger  *log.Logger
}

// observeLoop waits for a change, lets the coalescing window elapse, then
// runs DidChange on the executor and waits for it before re-arming. Signals
// that arrive before the hook starts are drained so one batch yields one
// notification.
func observeLoop(ctx context.Context, o observation) {
	timer := time.NewTimer(o.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.changed:
		}

		timer.Reset(o.delay)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		done := make(chan struct{})
		posted := o.exec.Post(func() {
			defer close(done)
			n := o.ref.Value()
			if n == nil {
				o.logger.Error("Unknown", "router was collected during observation")
				return
			}
			if n.Closed() {
				return
			}
			drain(o.changed)
			n.owner.DidChange()
		})
		if !posted {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-done:
		}
	}
}

func drain(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
