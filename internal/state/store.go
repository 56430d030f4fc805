package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/waypoint/internal/cachemanager"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/router"
	"github.com/zjrosen/waypoint/internal/tracing"
)

const (
	name = "StateStore"

	// DefaultKeep is how many snapshots survive a save.
	DefaultKeep = 20

	snapshotTTL = cachemanager.DefaultExpiration
)

// Persistent is a router whose stack can be saved and restored.
// router.Base provides every method.
type Persistent interface {
	router.Router
	MarshalStack() ([]byte, error)
	RestoreStack(data []byte) error
	Decodable() bool
	Describe() string
	Len() int
}

// Store saves and restores the navigation state of a router hierarchy.
type Store struct {
	repo   Repository
	byGUID *cachemanager.ReadThroughCache[string, *Snapshot, string]
	cache  cachemanager.CacheManager[string, *Snapshot]
	keep   int
	logger *log.Logger
	tracer trace.Tracer
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// WithKeep sets how many snapshots are retained; keep <= 0 retains all.
func WithKeep(keep int) Option {
	return func(s *Store) { s.keep = keep }
}

// NewStore creates a store over repo. Saved snapshots never change, so
// lookups by GUID are served from an in-memory cache.
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		keep:   DefaultKeep,
		logger: log.Default(),
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(s)
	}

	cache := cachemanager.NewInMemoryCacheManager[string, *Snapshot]("snapshot-cache",
		cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval).WithLogger(s.logger)
	s.cache = cache
	s.byGUID = cachemanager.NewReadThroughCache[string, *Snapshot, string](cache, repo.FindByGUID, false)
	return s
}

// Capture encodes the stack of every persistent router under root, parents
// first. It must run on the execution context. A router whose stack cannot
// be encoded is left out and reported.
func (s *Store) Capture(root router.Router) *Snapshot {
	snap := &Snapshot{GUID: uuid.NewString(), CreatedAt: time.Now()}
	router.Walk(root, func(r router.Router) {
		p, ok := r.(Persistent)
		if !ok {
			return
		}
		n := p.Node()
		data, err := p.MarshalStack()
		if err != nil {
			s.logger.ErrorErr(name, "skipped unencodable stack of "+n.Name(), err, "path", n.Path())
			return
		}
		snap.Stacks = append(snap.Stacks, Stack{
			Path:   n.Path(),
			Router: n.Name(),
			Data:   data,
			Depth:  p.Len(),
		})
	})
	return snap
}

// Save persists snap and prunes snapshots beyond the retention limit.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	ctx, span := s.tracer.Start(ctx, tracing.SpanStateSave, trace.WithAttributes(
		attribute.String(tracing.AttrSnapshotGUID, snap.GUID),
		attribute.Int(tracing.AttrStackDepth, len(snap.Stacks)),
	))
	defer span.End()

	if err := s.repo.Save(ctx, snap); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("saving snapshot %s: %w", snap.GUID, err)
	}
	s.cache.Set(ctx, snap.GUID, snap, snapshotTTL)

	if s.keep > 0 {
		removed, err := s.repo.Prune(ctx, s.keep)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("pruning snapshots: %w", err)
		}
		if removed > 0 {
			_ = s.cache.Flush(ctx)
			s.cache.Set(ctx, snap.GUID, snap, snapshotTTL)
		}
	}

	span.SetStatus(codes.Ok, "")
	s.logger.Info(name, "saved snapshot", "guid", snap.GUID, "stacks", len(snap.Stacks))
	return nil
}

// Latest returns the newest saved snapshot or ErrNotFound.
func (s *Store) Latest(ctx context.Context) (*Snapshot, error) {
	snap, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, snap.GUID, snap, snapshotTTL)
	return snap, nil
}

// Load returns the snapshot with guid or ErrNotFound.
func (s *Store) Load(ctx context.Context, guid string) (*Snapshot, error) {
	return s.byGUID.Get(ctx, guid, guid, snapshotTTL)
}

// List returns up to limit snapshots, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	return s.repo.List(ctx, limit)
}

// RestoreReport says what happened to each router during Apply.
type RestoreReport struct {
	// Restored lists the paths whose stacks were replaced.
	Restored []string
	// Undecodable lists restored paths whose stacks hold destinations the
	// router no longer knows. They are part of Restored.
	Undecodable []string
	// Rejected maps paths to malformed data that was not applied.
	Rejected map[string]error
	// Missing lists routers the snapshot has no stack for.
	Missing []string
}

// Apply restores every persistent router under root from snap, matching
// routers by path. It must run on the execution context. Bad data never
// aborts the restore: it is recorded in the report and logged.
func (s *Store) Apply(ctx context.Context, root router.Router, snap *Snapshot) RestoreReport {
	_, span := s.tracer.Start(ctx, tracing.SpanStateLoad, trace.WithAttributes(
		attribute.String(tracing.AttrSnapshotGUID, snap.GUID),
	))
	defer span.End()

	report := RestoreReport{Rejected: map[string]error{}}
	router.Walk(root, func(r router.Router) {
		p, ok := r.(Persistent)
		if !ok {
			return
		}
		path := p.Node().Path()
		saved, ok := snap.Find(path)
		if !ok {
			report.Missing = append(report.Missing, path)
			return
		}
		if err := p.RestoreStack(saved.Data); err != nil {
			report.Rejected[path] = err
			s.logger.ErrorErr(name, "rejected saved stack", err, "path", path)
			return
		}
		report.Restored = append(report.Restored, path)
		if !p.Decodable() {
			report.Undecodable = append(report.Undecodable, path)
		}
	})

	span.SetAttributes(attribute.Int(tracing.AttrStackDepth, len(report.Restored)))
	if len(report.Rejected) > 0 || len(report.Undecodable) > 0 {
		span.SetStatus(codes.Error, "restore degraded")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	s.logger.Info(name, "restored snapshot", "guid", snap.GUID,
		"restored", len(report.Restored), "undecodable", len(report.Undecodable),
		"rejected", len(report.Rejected), "missing", len(report.Missing))
	return report
}

// RestoreLatest applies the newest snapshot through run, which must execute
// its argument on the execution context. It returns ErrNotFound when
// nothing has been saved.
func (s *Store) RestoreLatest(ctx context.Context, root router.Router, run func(func()) bool) (RestoreReport, error) {
	snap, err := s.Latest(ctx)
	if err != nil {
		return RestoreReport{}, err
	}
	var report RestoreReport
	if !run(func() { report = s.Apply(ctx, root, snap) }) {
		return RestoreReport{}, errors.New("state: execution context closed before restore")
	}
	return report, nil
}

// SaveFrom captures root through run and persists the result.
func (s *Store) SaveFrom(ctx context.Context, root router.Router, run func(func()) bool) (*Snapshot, error) {
	var snap *Snapshot
	if !run(func() { snap = s.Capture(root) }) {
		return nil, errors.New("state: execution context closed before save")
	}
	if err := s.Save(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
