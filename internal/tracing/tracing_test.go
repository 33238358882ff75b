package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// Tests here replace the global tracer provider and therefore do not run in
// parallel.

func TestDisabledIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), Config{Exporter: ExporterFile}, "dev", "session")
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestFileExporterWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "spans.json")
	p, err := Setup(context.Background(), Config{Enabled: true, Exporter: ExporterFile, FilePath: path}, "v1.2.3", "abc")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "job Reconcile")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "job Reconcile")
	require.Contains(t, string(data), "abc")
}

func TestSetupErrors(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: true, Exporter: ExporterFile}, "dev", "s")
	require.ErrorContains(t, err, "file_path required")

	_, err = Setup(context.Background(), Config{Enabled: true, Exporter: "zipkin"}, "dev", "s")
	require.ErrorContains(t, err, "unsupported exporter type: zipkin")
}

func TestEnabledWithoutExporter(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: true, Exporter: ExporterNone}, "dev", "s")
	require.NoError(t, err)
	_, span := otel.Tracer("test").Start(context.Background(), "local")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}
