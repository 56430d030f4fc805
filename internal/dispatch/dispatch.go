// Package dispatch feeds deep links from an event source into the router
// hierarchy. Links are applied one at a time on the execution context; the
// next link is not taken until the previous dispatch has completed.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/waypoint/internal/deeplink"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/pubsub"
	"github.com/zjrosen/waypoint/internal/routes"
	"github.com/zjrosen/waypoint/internal/tracing"
)

const name = "DeepLinkDispatcher"

// ErrQueueClosed is returned when the execution context has shut down.
var ErrQueueClosed = errors.New("dispatch: execution queue closed")

// Handler applies a link to the hierarchy. routes.RootRouter implements it.
type Handler interface {
	HandleDeepLink(l deeplink.DeepLink)
}

// Runner runs fn on the execution context and waits for it.
// mainloop.Queue implements it.
type Runner interface {
	Do(fn func()) bool
}

// Result describes one applied link.
type Result struct {
	ID      string
	Section routes.Tab
}

// Dispatcher applies deep links to a Handler through a Runner.
type Dispatcher struct {
	runner Runner
	target Handler
	logger *log.Logger
	tracer trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// New creates a dispatcher. Without options it logs to log.Default and
// traces nothing.
func New(runner Runner, target Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runner: runner,
		target: target,
		logger: log.Default(),
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch applies l and returns once the hierarchy has been updated.
func (d *Dispatcher) Dispatch(ctx context.Context, l deeplink.DeepLink) (Result, error) {
	l = deeplink.Value(l)
	res := Result{ID: uuid.NewString(), Section: routes.SectionFor(l)}

	_, span := d.tracer.Start(ctx, tracing.SpanDispatch, trace.WithAttributes(
		attribute.String(tracing.AttrDispatchID, res.ID),
		attribute.String(tracing.AttrLinkKind, l.String()),
		attribute.String(tracing.AttrLinkURL, deeplink.Format(l)),
		attribute.String(tracing.AttrSection, string(res.Section)),
	))
	defer span.End()

	span.AddEvent(tracing.EventQueued)
	if !d.runner.Do(func() { d.target.HandleDeepLink(l) }) {
		span.AddEvent(tracing.EventQueueClose)
		span.SetStatus(codes.Error, ErrQueueClosed.Error())
		d.logger.ErrorErr(name, "dropped "+l.String(), ErrQueueClosed, "id", res.ID)
		return res, ErrQueueClosed
	}
	span.AddEvent(tracing.EventApplied)
	span.SetStatus(codes.Ok, "")

	d.logger.Info(name, "dispatched "+l.String(), "id", res.ID, "section", res.Section)
	return res, nil
}

// Run consumes src until ctx ends or src closes its channel. Links are
// dispatched in delivery order. Returns ctx.Err() on cancellation, nil when
// the source closes, and ErrQueueClosed if the execution context stops.
func (d *Dispatcher) Run(ctx context.Context, src pubsub.Subscriber[deeplink.DeepLink]) error {
	events := src.Subscribe(ctx)
	d.logger.Lifecycle(name, "listening for deep links")
	defer d.logger.Lifecycle(name, "stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Payload == nil {
				d.logger.Error(name, "ignored empty deep link event", "type", ev.Type)
				continue
			}
			if _, err := d.Dispatch(ctx, ev.Payload); err != nil {
				return fmt.Errorf("dispatching %s: %w", ev.Payload, err)
			}
		}
	}
}
