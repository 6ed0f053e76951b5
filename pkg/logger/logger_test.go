package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cwrk-planet/live-relay/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// последняя непустая строка вывода как JSON-объект
func lastJSONLine(t *testing.T, out string) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &m), "output: %s", out)
	return m
}

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, logger.EnvDev, logger.DetectEnv())

	t.Setenv("APP_ENV", "Staging")
	assert.Equal(t, logger.EnvStage, logger.DetectEnv())

	t.Setenv("APP_ENV", "production")
	assert.Equal(t, logger.EnvProd, logger.DetectEnv())

	t.Setenv("APP_ENV", "pre-production")
	assert.Equal(t, logger.EnvStage, logger.DetectEnv())

	assert.True(t, logger.Env("").IsDev())
	assert.False(t, logger.EnvStage.IsDev())
}

func TestParseLevel(t *testing.T) {
	lvl, err := logger.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	lvl, err = logger.ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = logger.ParseLevel("verbose")
	require.Error(t, err)

	_, err = logger.ParseBackend("logrus")
	require.Error(t, err)
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Version: "v0.0.1",
		Env:     logger.EnvDev,
		Backend: logger.BackendStd,
		Level:   slog.LevelDebug,
		Output:  &buf,
	})

	slog.Debug("user joined room", "room", "perf-1")

	out := buf.String()
	assert.NotContains(t, out, "{")
	assert.Contains(t, out, "user joined room")
	assert.Contains(t, out, "service="+logger.DefaultService)
	assert.Contains(t, out, "env=dev")
	assert.Contains(t, out, "room=perf-1")
}

func TestInit_StageStd_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{Service: "demo", Env: logger.EnvStage, Backend: logger.BackendStd, Output: &buf})

	slog.Info("booted")
	slog.Debug("hidden")

	m := lastJSONLine(t, buf.String())
	assert.Equal(t, "booted", m["msg"])
	assert.Equal(t, "stage", m["env"])
	assert.NotContains(t, buf.String(), "hidden")
	// ключи как у zap
	assert.Contains(t, m, "ts")
	assert.NotContains(t, m, "time")
}

func TestInit_ExtraAttrsOnEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service: "live-relay",
		Env:     logger.EnvStage,
		Backend: logger.BackendStd,
		Output:  &buf,
		Attrs: []slog.Attr{
			slog.String("http_addr", ":8080"),
			slog.String("grpc_addr", ":9090"),
		},
	})

	slog.Info("ready")

	m := lastJSONLine(t, buf.String())
	assert.Equal(t, ":8080", m["http_addr"])
	assert.Equal(t, ":9090", m["grpc_addr"])
	assert.Equal(t, "live-relay", m["service"])
	assert.NotEmpty(t, m["instance_id"])
	assert.EqualValues(t, os.Getpid(), m["pid"])
}

func TestWithConn_AddsConnAttr(t *testing.T) {
	ctx := logger.WithConn(context.Background(), "c-1")
	attrs := logger.AttrsFromCtx(ctx)
	require.Len(t, attrs, 1)
	assert.Equal(t, "conn", attrs[0].Key)
	assert.Equal(t, "c-1", attrs[0].Value.String())

	var buf bytes.Buffer
	logger.Init(logger.Config{Env: logger.EnvProd, Backend: logger.BackendStd, Output: &buf})
	slog.InfoContext(ctx, "user connected", logger.ArgsFromCtx(ctx)...)

	m := lastJSONLine(t, buf.String())
	assert.Equal(t, "c-1", m["conn"])
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service:          "demo",
		Version:          "1.2.3",
		Env:              logger.EnvProd,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})

	slog.Info("booted", slog.String("k", "v"))

	m := lastJSONLine(t, buf.String())
	assert.Equal(t, "booted", m["msg"])
	assert.Equal(t, "demo", m["service"])
	assert.Equal(t, "prod", m["env"])
	assert.Equal(t, "1.2.3", m["version"])
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "v", m["k"])
}

func TestAttrsFromCtx(t *testing.T) {
	require.Nil(t, logger.AttrsFromCtx(context.Background()))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	logger.Init(logger.Config{
		Env:              logger.EnvProd,
		Backend:          logger.BackendZap,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})
	slog.InfoContext(ctx, "with trace", logger.ArgsFromCtx(ctx)...)

	m := lastJSONLine(t, buf.String())
	assert.Equal(t, "with trace", m["msg"])
	assert.Equal(t, span.SpanContext().TraceID().String(), m["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), m["span_id"])
}

func TestL_InitializesLazily(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	require.NotNil(t, logger.L())
	require.NoError(t, logger.Sync())
}
