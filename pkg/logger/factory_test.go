package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaddesk/authkit/pkg/logger"
	"github.com/leaddesk/authkit/pkg/requestid"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with static attrs", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "authkit")),
		)

		log.Info("ready")

		line := logLine(t, &buf)
		assert.Equal(t, "ready", line["msg"])
		assert.Equal(t, "authkit", line["service"])
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithLevel(slog.LevelWarn),
		)

		log.Info("dropped")
		assert.Zero(t, buf.Len())

		log.Warn("kept")
		assert.NotZero(t, buf.Len())
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithFormat(logger.FormatText),
		)

		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})

	t.Run("production preset", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithProduction("authkit"),
		)

		log.Debug("dropped")
		assert.Zero(t, buf.Len())

		log.Info("up")
		line := logLine(t, &buf)
		assert.Equal(t, "authkit", line["service"])
		assert.Equal(t, "production", line["env"])
	})
}

func TestContextExtraction(t *testing.T) {
	t.Parallel()

	t.Run("request id flows from context", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextValue("request_id", requestid.ContextKey()),
		)

		ctx := requestid.WithContext(context.Background(), "req-42")
		log.InfoContext(ctx, "handled")

		line := logLine(t, &buf)
		assert.Equal(t, "req-42", line["request_id"])
	})

	t.Run("missing context value adds nothing", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextValue("request_id", requestid.ContextKey()),
		)

		log.InfoContext(context.Background(), "handled")

		line := logLine(t, &buf)
		_, present := line["request_id"]
		assert.False(t, present)
	})

	t.Run("custom extractor", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
				return slog.String("tenant_id", "acme"), true
			}),
		)

		log.InfoContext(context.Background(), "handled")

		line := logLine(t, &buf)
		assert.Equal(t, "acme", line["tenant_id"])
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	log.Info("switch",
		logger.UserID("u1"),
		logger.TenantID("t1"),
		logger.RequestID("req-1"),
	)

	line := logLine(t, &buf)
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "t1", line["tenant_id"])
	assert.Equal(t, "req-1", line["request_id"])
}
