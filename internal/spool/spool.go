// Package spool is a deep-link event source backed by a directory.
//
// External processes drop files ending in ".link" into the directory, one
// deep-link URL per line. The spool parses each file in name order and
// hands its links to subscribers one at a time, in line order, without
// buffering: a link counts as delivered only once a subscriber has taken
// it. The file is removed after its last link is taken. When delivery stops
// part way, the file is rewritten to hold the links not yet taken. Files are
// left in place while nobody is subscribed, so links written before the
// dispatcher starts are not lost.
package spool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/waypoint/internal/deeplink"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/pubsub"
	"github.com/zjrosen/waypoint/internal/tracing"
	"github.com/zjrosen/waypoint/internal/watcher"
)

const (
	name = "LinkSpool"

	// Ext is the suffix of files the spool consumes.
	Ext = ".link"

	// RejectedExt replaces Ext on files holding unparseable lines.
	RejectedExt = ".rejected"
)

// Config configures a Spool.
type Config struct {
	Dir      string
	Debounce time.Duration
	Logger   *log.Logger
	Tracer   trace.Tracer
}

// Spool watches a directory and publishes the deep links found in it.
// It implements pubsub.Subscriber[deeplink.DeepLink].
type Spool struct {
	dir      string
	debounce time.Duration
	logger   *log.Logger
	tracer   trace.Tracer

	broker *pubsub.Broker[deeplink.DeepLink]
	kick   chan struct{}
}

// New creates a spool for cfg.Dir, creating the directory if needed.
func New(cfg Config) (*Spool, error) {
	if cfg.Dir == "" {
		return nil, errors.New("spool directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}
	s := &Spool{
		dir:      cfg.Dir,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		tracer:   cfg.Tracer,
		broker:   pubsub.NewBrokerWithBuffer[deeplink.DeepLink](0),
		kick:     make(chan struct{}, 1),
	}
	if s.debounce <= 0 {
		s.debounce = watcher.DefaultConfig(cfg.Dir).DebounceDur
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return s, nil
}

// Dir returns the watched directory.
func (s *Spool) Dir() string { return s.dir }

// Subscribe implements pubsub.Subscriber. A new subscriber triggers a scan
// so files waiting in the directory are delivered.
func (s *Spool) Subscribe(ctx context.Context) <-chan pubsub.Event[deeplink.DeepLink] {
	ch := s.broker.Subscribe(ctx)
	select {
	case s.kick <- struct{}{}:
	default:
	}
	return ch
}

// Run watches the directory until ctx ends. It closes every subscription
// on return.
func (s *Spool) Run(ctx context.Context) error {
	defer s.broker.Close()

	w, err := watcher.New(watcher.Config{
		Dir:         s.dir,
		DebounceDur: s.debounce,
		Match:       watcher.MatchSuffix(Ext),
		OnError: func(err error) {
			s.logger.ErrorErr(name, "watch error", err)
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}
	s.logger.Lifecycle(name, "watching "+s.dir)

	for {
		if err := s.Drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.ErrorErr(name, "draining spool", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		case <-s.kick:
		}
	}
}

// Drain delivers every pending file once. It does nothing while there are
// no subscribers.
func (s *Spool) Drain(ctx context.Context) error {
	if s.broker.SubscriberCount() == 0 {
		return nil
	}
	files, err := s.pending()
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range files {
		if err := s.deliverFile(ctx, path); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// pending lists spool files in name order.
func (s *Spool) pending() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading spool directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && watcher.MatchSuffix(Ext)(e.Name()) {
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

func (s *Spool) deliverFile(ctx context.Context, path string) (err error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanSpoolFile,
		trace.WithAttributes(attribute.String(tracing.AttrLinkSource, filepath.Base(path))))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	links, bad, err := ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range bad {
		s.logger.Error(name, "rejected line", "file", filepath.Base(path), "line", line)
	}

	for i, l := range links {
		if err := s.broker.Send(ctx, pubsub.LinkEvent, l); err != nil {
			err = fmt.Errorf("delivering %s: %w", filepath.Base(path), err)
			if i > 0 {
				if rerr := requeue(path, links[i:], bad); rerr != nil {
					err = errors.Join(err, rerr)
				}
				s.logger.Info(name, "kept undelivered links in "+filepath.Base(path), "delivered", i, "left", len(links)-i)
			}
			return err
		}
	}
	s.logger.Info(name, "delivered "+filepath.Base(path), "links", len(links), "rejected", len(bad))

	if len(bad) > 0 {
		rejected := strings.TrimSuffix(path, Ext) + RejectedExt
		if err := os.Rename(path, rejected); err != nil {
			return fmt.Errorf("setting aside %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// requeue atomically replaces path with the given links followed by the
// lines that did not parse.
func requeue(path string, links []deeplink.DeepLink, bad []string) error {
	var b strings.Builder
	for _, l := range links {
		b.WriteString(deeplink.Format(l))
		b.WriteByte('\n')
	}
	for _, line := range bad {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("rewriting %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rewriting %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadFile parses a spool file. Blank lines and lines starting with '#' are
// skipped; lines that do not parse are returned in bad.
func ReadFile(path string) (links []deeplink.DeepLink, bad []string, err error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the spool directory listing
	if err != nil {
		return nil, nil, fmt.Errorf("opening spool file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l, perr := deeplink.Parse(line)
		if perr != nil {
			bad = append(bad, line)
			continue
		}
		links = append(links, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading spool file: %w", err)
	}
	return links, bad, nil
}

// Write atomically drops links into dir as a new spool file and returns its
// path. It is the producer side used by the CLI.
func Write(dir string, links ...deeplink.DeepLink) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating spool directory: %w", err)
	}
	var b strings.Builder
	for _, l := range links {
		b.WriteString(deeplink.Format(l))
		b.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(dir, "drop-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating spool file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing spool file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("closing spool file: %w", err)
	}

	final := filepath.Join(dir, fmt.Sprintf("%020d-%s%s", time.Now().UnixNano(), strings.TrimSuffix(filepath.Base(tmpPath), ".tmp"), Ext))
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("publishing spool file: %w", err)
	}
	return final, nil
}
