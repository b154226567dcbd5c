package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf, ServiceName: "stocksync"})

	ctx := WithShop(WithRequestID(context.Background(), "req-1"), "matcha-house.myshopify.com")
	logger.InfoContext(ctx, "sync started")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "sync started", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "matcha-house.myshopify.com", entry["shop"])
	assert.Equal(t, "stocksync", entry["app"])
	assert.Equal(t, "INFO", entry["severity"])
}

func TestNewLogger_Redaction(t *testing.T) {
	tests := []struct {
		name     string
		log      func(*slog.Logger)
		key      string
		expected string
	}{
		{
			name:     "sensitive_key",
			log:      func(l *slog.Logger) { l.Info("session", slog.String("access_token", "shpat_abc123")) },
			key:      "access_token",
			expected: "***REDACTED***",
		},
		{
			name:     "bearer_in_value",
			log:      func(l *slog.Logger) { l.Info("request", slog.String("header", "Bearer abc.def")) },
			key:      "header",
			expected: "Bearer=***REDACTED***",
		},
		{
			name:     "shopify_token_in_error",
			log:      func(l *slog.Logger) { l.Info("failed", slog.String("error", "token shpat_0123abc rejected")) },
			key:      "error",
			expected: "token shpat=***REDACTED*** rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(LogConfig{Format: "json", Output: &buf}))
			assert.Equal(t, tt.expected, decodeLine(t, &buf)[tt.key])
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown", slog.String("shop", "a.myshopify.com"))
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "shop=a.myshopify.com")
}
