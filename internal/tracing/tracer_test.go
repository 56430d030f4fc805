package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.Enabled, "tracing should be disabled by default")
	require.Equal(t, "file", cfg.Exporter)
	require.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, "waypoint", cfg.ServiceName)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "negative sample rate", cfg: Config{SampleRate: -0.1}, wantErr: "sample_rate"},
		{name: "sample rate above one", cfg: Config{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "unknown exporter", cfg: Config{Exporter: "jaeger"}, wantErr: "exporter"},
		{name: "file without path", cfg: Config{Enabled: true, Exporter: "file"}, wantErr: "file_path"},
		{name: "disabled file without path", cfg: Config{Exporter: "file"}},
		{name: "otlp", cfg: Config{Enabled: true, Exporter: "otlp", SampleRate: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "test-span")
	require.False(t, span.SpanContext().IsValid(), "no-op spans carry no ids")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "jaeger"})
	require.ErrorContains(t, err, "unsupported exporter type")

	_, err = NewProvider(Config{Enabled: true, Exporter: "file"})
	require.ErrorContains(t, err, "file_path required")
}

func TestNewProvider_NoneExporterStillCorrelates(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	_, span := provider.Tracer().Start(context.Background(), SpanDispatch)
	require.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestNewProvider_FileExporterWritesSpans(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	provider, err := NewProvider(Config{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   tracePath,
		SampleRate: 1.0,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	ctx, parent := provider.Tracer().Start(context.Background(), SpanDispatch)
	parent.SetAttributes(attribute.String(AttrLinkKind, "chat"))
	parent.AddEvent(EventQueued)
	_, child := provider.Tracer().Start(ctx, SpanStateSave)
	child.SetStatus(codes.Error, "disk full")
	child.End()
	parent.SetStatus(codes.Ok, "")
	parent.End()

	require.NoError(t, provider.Shutdown(context.Background()))

	f, err := os.Open(tracePath)
	require.NoError(t, err)
	defer f.Close()

	records := map[string]SpanRecord{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records[rec.Name] = rec
	}
	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)

	dispatch := records[SpanDispatch]
	require.Equal(t, "OK", dispatch.Status)
	require.Equal(t, "chat", dispatch.Attributes[AttrLinkKind])
	require.Equal(t, []string{EventQueued}, dispatch.Events)
	require.Empty(t, dispatch.ParentSpanID)

	save := records[SpanStateSave]
	require.Equal(t, "ERROR", save.Status)
	require.Equal(t, "disk full", save.StatusMsg)
	require.Equal(t, dispatch.SpanID, save.ParentSpanID)
	require.Equal(t, dispatch.TraceID, save.TraceID)
}

func TestFileExporter_ExportAfterShutdown(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()), "shutdown is idempotent")

	err = exp.ExportSpans(context.Background(), tracetest.SpanStubs{{Name: "late"}}.Snapshots())
	require.Error(t, err)
}

func TestNewProviderWith_Recorder(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := NewProviderWith("test", sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	_, span := provider.Tracer().Start(context.Background(), SpanSpoolFile)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, SpanSpoolFile, ended[0].Name())
}
