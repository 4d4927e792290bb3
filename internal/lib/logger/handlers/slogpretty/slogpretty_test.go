package slogpretty

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(buf *bytes.Buffer) *PrettyHandler {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}
	return opts.NewPrettyHandler(buf)
}

func TestHandleFormatsClockTime(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newHandler(&buf)

	r := slog.NewRecord(time.Date(2026, 11, 3, 10, 42, 7, 0, time.UTC), slog.LevelInfo, "event created", 0)
	require.NoError(t, h.Handle(context.Background(), r))

	assert.Contains(t, buf.String(), "[10:42:07.000]")
	assert.Contains(t, buf.String(), "event created")
}

func TestWithGroupKeepsAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newHandler(&buf).
		WithAttrs([]slog.Attr{slog.String("op", "services.catalog.CreateEvent")}).
		WithGroup("request")

	pretty, ok := h.(*PrettyHandler)
	require.True(t, ok)
	assert.NotNil(t, pretty.opts.SlogOpts)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "grouped", 0)
	require.NoError(t, h.Handle(context.Background(), r))

	assert.Contains(t, buf.String(), `"op": "services.catalog.CreateEvent"`)
}
