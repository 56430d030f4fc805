package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/zjrosen/waypoint/internal/config"
	"github.com/zjrosen/waypoint/internal/dispatch"
	"github.com/zjrosen/waypoint/internal/flags"
	"github.com/zjrosen/waypoint/internal/infrastructure/sqlite"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/mainloop"
	"github.com/zjrosen/waypoint/internal/routes"
	"github.com/zjrosen/waypoint/internal/spool"
	"github.com/zjrosen/waypoint/internal/state"
	"github.com/zjrosen/waypoint/internal/tracing"
)

const component = "Waypoint"

type runtimeOptions struct {
	// out receives records without timestamps in addition to the log file.
	out io.Writer
}

// runtime is one running hierarchy with everything around it.
type runtime struct {
	cfg        config.Config
	logger     *log.Logger
	queue      *mainloop.Queue
	root       *routes.RootRouter
	tracer     *tracing.Provider
	db         *sqlite.DB
	store      *state.Store
	dispatcher *dispatch.Dispatcher

	closers []func()
	once    sync.Once
}

// newRuntime builds the hierarchy on a fresh execution queue, opens the
// state database and restores the last snapshot when enabled.
func newRuntime(ctx context.Context, cfg config.Config, opts runtimeOptions) (rt *runtime, err error) {
	rt = &runtime{cfg: cfg}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	if err := rt.openLogger(opts.out); err != nil {
		return rt, err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return rt, fmt.Errorf("starting tracing: %w", err)
	}
	rt.tracer = provider
	rt.defer_(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	})

	rt.queue = mainloop.New()
	rt.defer_(rt.queue.Close)

	env := cfg.RouterEnv(rt.logger, rt.queue)
	rt.queue.Do(func() { rt.root = routes.NewRootRouter(env) })
	rt.defer_(func() { rt.queue.Do(rt.root.Close) })

	rt.dispatcher = dispatch.New(rt.queue, rt.root,
		dispatch.WithLogger(rt.logger),
		dispatch.WithTracer(provider.Tracer()),
	)

	if cfg.State.Enabled {
		if err := rt.openStore(ctx, env.Flags); err != nil {
			return rt, err
		}
	}

	rt.logger.Lifecycle(component, "started", "state", cfg.State.Enabled, "tracing", provider.Enabled())
	return rt, nil
}

func (rt *runtime) openLogger(out io.Writer) error {
	var writers []io.Writer
	if out != nil {
		writers = append(writers, out)
	}
	if rt.cfg.LogPath != "" {
		f, err := log.OpenFile(rt.cfg.LogPath)
		if err != nil {
			return err
		}
		rt.defer_(func() { _ = f.Close() })
		writers = append(writers, f)
	}

	switch len(writers) {
	case 0:
		rt.logger = log.New(nil)
	case 1:
		rt.logger = log.New(writers[0])
	default:
		rt.logger = log.New(io.MultiWriter(writers...))
	}
	if out != nil {
		rt.logger.SetTimeLayout("")
	}
	rt.logger.SetMinLevel(rt.cfg.MinLevel())
	log.SetDefault(rt.logger)
	rt.defer_(func() {
		log.SetDefault(log.New(nil))
		_ = rt.logger.Close()
	})
	return nil
}

func (rt *runtime) openStore(ctx context.Context, reg *flags.Registry) error {
	db, err := sqlite.NewDB(rt.cfg.State.Path)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	rt.db = db
	rt.defer_(func() { _ = db.Close() })

	rt.store = state.NewStore(db.SnapshotRepository(),
		state.WithLogger(rt.logger),
		state.WithTracer(rt.tracer.Tracer()),
		state.WithKeep(rt.cfg.State.Keep),
	)
	rt.defer_(rt.saveState)

	if !reg.Enabled(flags.FlagRestoreState) {
		return nil
	}
	report, err := rt.store.RestoreLatest(ctx, rt.root, rt.queue.Do)
	switch {
	case errors.Is(err, state.ErrNotFound):
		rt.logger.Info(component, "no saved state to restore")
	case err != nil:
		return fmt.Errorf("restoring state: %w", err)
	case len(report.Undecodable) > 0 || len(report.Rejected) > 0:
		rt.logger.Error(component, "restored state is degraded",
			"undecodable", report.Undecodable, "rejected", len(report.Rejected))
	}
	return nil
}

func (rt *runtime) saveState() {
	if _, err := rt.store.SaveFrom(context.Background(), rt.root, rt.queue.Do); err != nil {
		rt.logger.ErrorErr(component, "failed to save state", err)
	}
}

// startSpool feeds the configured spool directory into the dispatcher until
// the returned stop function is called.
func (rt *runtime) startSpool() (stop func(), err error) {
	if !rt.cfg.Spool.Enabled {
		return func() {}, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	done, err := rt.runSpool(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	return func() {
		cancel()
		<-done
	}, nil
}

// runSpool runs the spool watcher and the dispatcher until ctx ends or one
// of them fails. The returned channel yields the first error and is closed
// once both have stopped.
func (rt *runtime) runSpool(ctx context.Context) (<-chan error, error) {
	sp, err := spool.New(spool.Config{
		Dir:      rt.cfg.Spool.Dir,
		Debounce: rt.cfg.Spool.Debounce,
		Logger:   rt.logger,
		Tracer:   rt.tracer.Tracer(),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- rt.dispatcher.Run(ctx, sp)
		cancel()
	}()
	go func() {
		defer wg.Done()
		errs <- sp.Run(ctx)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		wg.Wait()
		cancel()
		close(errs)
		var first error
		for err := range errs {
			if err != nil && !errors.Is(err, context.Canceled) && first == nil {
				first = err
			}
		}
		if first != nil {
			done <- first
		}
		close(done)
	}()

	rt.logger.Lifecycle(component, "watching spool", "dir", sp.Dir())
	return done, nil
}

// settle waits out one coalescing window and then drains the queue, so the
// change records of everything applied so far have been written.
func (rt *runtime) settle() {
	delay := rt.cfg.CoalesceDelay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	time.Sleep(delay + delay/2)
	rt.queue.Do(func() {})
}

func (rt *runtime) defer_(fn func()) {
	rt.closers = append(rt.closers, fn)
}

// Close saves state, closes the hierarchy and releases resources in reverse
// order of acquisition.
func (rt *runtime) Close() {
	rt.once.Do(func() {
		for i := len(rt.closers) - 1; i >= 0; i-- {
			rt.closers[i]()
		}
	})
}
