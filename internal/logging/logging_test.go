package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	got := LogFilePath("/var/log/rig", "ballrig", start)
	assert.Equal(t, filepath.Join("/var/log/rig", "ballrig.20260314_103000.log"), got)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("Error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("garbage"))
}

func TestMultiHandlerFanOut(t *testing.T) {
	var a, b bytes.Buffer
	mh := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		nil,
		slog.NewTextHandler(&b, nil),
	)

	logger := slog.New(mh)
	logger.Info("frame applied", "frame", 17)

	assert.Contains(t, a.String(), "frame applied")
	assert.Contains(t, b.String(), "frame=17")
}

type failingHandler struct{ err error }

func (h failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h failingHandler) WithGroup(string) slog.Handler             { return h }

func TestMultiHandlerKeepsGoingOnFailure(t *testing.T) {
	var buf bytes.Buffer
	errBoom := errors.New("boom")
	mh := NewMultiHandler(
		failingHandler{err: errBoom},
		slog.NewTextHandler(&buf, nil),
	)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "still delivered", 0)
	err := mh.Handle(context.Background(), rec)

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, buf.String(), "still delivered")
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var buf bytes.Buffer
	mh := NewMultiHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)

	assert.False(t, mh.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, mh.Enabled(context.Background(), slog.LevelError))
}

func TestContextHandlerInjectsAttrs(t *testing.T) {
	var buf bytes.Buffer
	frame := int64(0)
	h := NewContextHandler(
		slog.NewTextHandler(&buf, nil),
		func() []slog.Attr {
			return []slog.Attr{slog.Int64("frame", frame)}
		},
	)

	logger := slog.New(h)
	frame = 42
	logger.Info("tick")

	assert.Contains(t, buf.String(), "frame=42")
}

func TestSlogManagerSetup(t *testing.T) {
	var file, gelfBuf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, &gelfBuf, "debug", nil, func() []slog.Attr {
		return []slog.Attr{slog.String("rig", "rig1")}
	})

	m.Logger().Debug("sensor drained", "count", 3)

	require.Contains(t, file.String(), "sensor drained")
	assert.Contains(t, file.String(), "rig=rig1")
	// GELF sink gets JSON records.
	assert.True(t, strings.Contains(gelfBuf.String(), `"msg":"sensor drained"`))
	// Timestamps are normalized to UTC RFC3339.
	assert.Contains(t, file.String(), "Z")

	require.NoError(t, m.Flush(context.Background()))
}

func TestSlogManagerDefaultLogger(t *testing.T) {
	m := NewSlogManager()
	assert.NotNil(t, m.Logger())
}
