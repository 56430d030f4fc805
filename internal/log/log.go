// Package log provides the structured notification log for waypoint.
// Every record is written to an optional file and published on a pubsub
// broker so in-process observers (the TUI, the CLI printer, tests) can
// follow router activity.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/waypoint/internal/pubsub"
)

// Level classifies a record.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNavigation
	LevelState
	LevelLifecycle
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelNavigation:
		return "NAVIGATION"
	case LevelState:
		return "STATE"
	case LevelLifecycle:
		return "LIFECYCLE"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "navigation":
		return LevelNavigation
	case "state":
		return LevelState
	case "lifecycle":
		return LevelLifecycle
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Record is one notification emitted by a router or by plumbing code.
type Record struct {
	Level   Level
	Router  string
	Message string
	Fields  []any
	Time    time.Time
}

// Field returns the value paired with key in r.Fields.
func (r Record) Field(key string) (any, bool) {
	for i := 0; i+1 < len(r.Fields); i += 2 {
		if k, ok := r.Fields[i].(string); ok && k == key {
			return r.Fields[i+1], true
		}
	}
	return nil, false
}

// String renders the record as a single log line without a timestamp.
func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", r.Level, r.Router, r.Message)
	for i := 0; i+1 < len(r.Fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", r.Fields[i], r.Fields[i+1])
	}
	if len(r.Fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", r.Fields[len(r.Fields)-1])
	}
	return b.String()
}

// Logger writes records and publishes them to subscribers.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level
	layout   string
	broker   *pubsub.Broker[Record]
}

// New creates a logger writing to w. A nil writer only publishes.
func New(w io.Writer) *Logger {
	return &Logger{
		writer:   w,
		enabled:  true,
		minLevel: LevelDebug,
		layout:   "2006-01-02T15:04:05",
		broker:   pubsub.NewBrokerWithBuffer[Record](256),
	}
}

// OpenFile opens path for appending log lines.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: user-configured log path
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// Open creates a logger appending to the file at path.
func Open(path string) (*Logger, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	l := New(f)
	l.file = f
	return l, nil
}

// Close stops publishing and closes the log file, if any.
func (l *Logger) Close() error {
	l.broker.Close()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.writer = nil
		return err
	}
	return nil
}

// SetEnabled toggles logging on/off.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

// SetMinLevel sets the minimum level that is written and published.
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	l.minLevel = level
	l.mu.Unlock()
}

// SetTimeLayout sets the timestamp layout of written lines. An empty
// layout writes lines without a timestamp.
func (l *Logger) SetTimeLayout(layout string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.layout = layout
}

// Subscribe implements pubsub.Subscriber for log records.
func (l *Logger) Subscribe(ctx context.Context) <-chan pubsub.Event[Record] {
	return l.broker.Subscribe(ctx)
}

// NewListener creates a Bubble Tea friendly listener for records.
func (l *Logger) NewListener(ctx context.Context) *Listener {
	return pubsub.NewContinuousListener[Record](ctx, l)
}

// Listener wraps a continuous listener for log records.
type Listener = pubsub.ContinuousListener[Record]

// Event is a pubsub event containing a record.
type Event = pubsub.Event[Record]

func (l *Logger) Debug(router, msg string, fields ...any) {
	l.Log(LevelDebug, router, msg, fields...)
}

func (l *Logger) Info(router, msg string, fields ...any) {
	l.Log(LevelInfo, router, msg, fields...)
}

func (l *Logger) Navigation(router, msg string, fields ...any) {
	l.Log(LevelNavigation, router, msg, fields...)
}

func (l *Logger) State(router, msg string, fields ...any) {
	l.Log(LevelState, router, msg, fields...)
}

func (l *Logger) Lifecycle(router, msg string, fields ...any) {
	l.Log(LevelLifecycle, router, msg, fields...)
}

func (l *Logger) Error(router, msg string, fields ...any) {
	l.Log(LevelError, router, msg, fields...)
}

// ErrorErr logs an error-level record with the error value attached.
func (l *Logger) ErrorErr(router, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	l.Log(LevelError, router, msg, fields...)
}

// Log writes and publishes one record. Safe for concurrent use and on a nil Logger.
func (l *Logger) Log(level Level, router, msg string, fields ...any) {
	if l == nil {
		return
	}

	l.mu.Lock()
	if !l.enabled || level < l.minLevel {
		l.mu.Unlock()
		return
	}

	rec := Record{
		Level:   level,
		Router:  router,
		Message: msg,
		Fields:  fields,
		Time:    time.Now(),
	}

	// Format: 2025-12-06T10:45:00 [STATE] [TabCRouter] path changed key=value
	if l.writer != nil {
		line := rec.String() + "\n"
		if l.layout != "" {
			line = rec.Time.Format(l.layout) + " " + line
		}
		_, _ = l.writer.Write([]byte(line))
	}
	l.mu.Unlock()

	l.broker.Publish(pubsub.ChangedEvent, rec)
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(nil)
)

// Init replaces the default logger with one appending to path.
// Returns a cleanup function that closes the file.
func Init(path string) (func(), error) {
	l, err := Open(path)
	if err != nil {
		return nil, err
	}
	SetDefault(l)
	return func() { _ = l.Close() }, nil
}

// SetDefault replaces the package-level logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the package-level logger. It publishes records but writes
// nowhere until Init or SetDefault is called.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}
