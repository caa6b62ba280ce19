package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func setup(t *testing.T, opts Options) (*SlogManager, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var console, file bytes.Buffer
	opts.Console = &console
	if opts.File == nil {
		opts.File = &file
	}
	m := NewSlogManager()
	require.NoError(t, m.Setup(opts))
	t.Cleanup(func() { _ = m.Close() })
	return m, &console, &file
}

func TestSetup_ConsoleAndFile(t *testing.T) {
	m, console, file := setup(t, Options{Level: "info"})
	m.Logger().Info("hello both")

	assert.Contains(t, console.String(), "hello both")
	assert.Contains(t, file.String(), "hello both")
	assert.Contains(t, file.String(), "Logging initialized")
}

func TestSetup_DebugLevel(t *testing.T) {
	m, _, file := setup(t, Options{Level: "debug"})
	m.Logger().Debug("debug msg")
	m.Logger().Info("info msg")

	assert.Contains(t, file.String(), "debug msg")
	assert.Contains(t, file.String(), "info msg")
	assert.Equal(t, slog.LevelDebug, m.Level())
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	m, _, file := setup(t, Options{Level: "info"})
	m.Logger().Debug("should be filtered")
	m.Logger().Info("should appear")

	assert.NotContains(t, file.String(), "should be filtered")
	assert.Contains(t, file.String(), "should appear")
}

func TestSetup_ContextProvider(t *testing.T) {
	turn := 1
	m, _, file := setup(t, Options{Level: "info", Context: func() []slog.Attr {
		return []slog.Attr{slog.Int("turn", turn), slog.String("phase", "movement")}
	}})

	turn = 3
	m.Logger().Info("moved")
	assert.Contains(t, file.String(), "turn=3")
	assert.Contains(t, file.String(), "phase=movement")
}

func TestSetup_BadGraylogAddress(t *testing.T) {
	var console, file bytes.Buffer
	m := NewSlogManager()
	err := m.Setup(Options{Level: "info", Console: &console, File: &file, GraylogAddress: "no-port"})
	require.Error(t, err)

	// The other sinks still work.
	m.Logger().Info("still logging")
	assert.Contains(t, file.String(), "still logging")
	assert.NoError(t, m.Close())
}

func TestSetup_Graylog(t *testing.T) {
	m, _, file := setup(t, Options{Level: "info", GraylogAddress: "127.0.0.1:12201"})
	m.Logger().Info("to graylog")
	assert.Contains(t, file.String(), "to graylog")
	assert.NotNil(t, m.graylog)
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
	assert.NoError(t, m.Close())
}

func TestFlush(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Flush(context.Background()))

	m, _, file := setup(t, Options{Level: "info", Provider: sdklog.NewLoggerProvider()})
	m.Logger().Info("otel integrated")
	assert.Contains(t, file.String(), "otel integrated")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := slog.NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(h1, nil, h2))
	logger.Info("fanned out")

	assert.Contains(t, buf1.String(), "fanned out")
	assert.Contains(t, buf2.String(), "fanned out")
}

func TestMultiHandler_Enabled(t *testing.T) {
	infoHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})

	infoOnly := NewMultiHandler(infoHandler)
	assert.False(t, infoOnly.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, infoOnly.Enabled(context.Background(), slog.LevelInfo))

	both := NewMultiHandler(infoHandler, debugHandler)
	assert.True(t, both.Enabled(context.Background(), slog.LevelDebug))

	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(slog.NewTextHandler(&buf, nil))

	logger := slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "test")}).WithGroup("grp"))
	logger.Info("grouped", "key", "val")

	assert.Contains(t, buf.String(), "component=test")
	assert.Contains(t, buf.String(), "grp.key=val")
	assert.Equal(t, multi, multi.WithGroup(""))
}

// errorHandler is a slog.Handler that always returns an error from Handle.
type errorHandler struct {
	slog.Handler
}

func (h *errorHandler) Handle(_ context.Context, _ slog.Record) error {
	return errors.New("handler error")
}

func (h *errorHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func TestMultiHandler_HandleError(t *testing.T) {
	var buf bytes.Buffer
	spy := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(&errorHandler{}, spy))
	logger.Info("should reach spy")

	assert.Contains(t, buf.String(), "should reach spy")
}

func TestContextHandler_WithAttrsKeepsProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("role", "server")}
	})

	logger := slog.New(h).With("session", "abc").WithGroup("g")
	logger.Info("hi", "k", 1)

	out := buf.String()
	assert.Contains(t, out, "session=abc")
	assert.Contains(t, out, "g.role=server")
	assert.Contains(t, out, "g.k=1")
	assert.Equal(t, h, h.WithGroup(""))
}
