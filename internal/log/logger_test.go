package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/intentcart/intentcart/internal/config"
)

func TestNewLogger_PrettyFormat(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(
		config.WithLogLevel("INFO"),
		config.WithLogFormat(config.LogFormatPretty),
	)

	logger := NewLogger(cfg)

	if logger == nil {
		t.Fatal("NewLogger should not return nil")
	}
	if logger.Slog() == nil {
		t.Error("Slog() should not return nil")
	}
}

func TestLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "DEBUG")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Errorf("expected 4 log lines, got %d", len(lines))
	}

	// Verify each line is valid JSON
	for i, line := range lines {
		var data map[string]any
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "WARN")

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO")

	logger.With("component", "resolver").Info("test message")

	var data map[string]any
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if data["component"] != "resolver" {
		t.Errorf("expected component=resolver, got %v", data["component"])
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO")

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithUserID(ctx, "user-9")

	logger.InfoContext(ctx, "cart updated")

	var data map[string]any
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if data["request_id"] != "req-123" {
		t.Errorf("expected request_id=req-123, got %v", data["request_id"])
	}
	if data["user_id"] != "user-9" {
		t.Errorf("expected user_id=user-9, got %v", data["user_id"])
	}
}

func TestLogger_WithContext_Empty(t *testing.T) {
	logger := NewLoggerWithWriter(&bytes.Buffer{}, config.LogFormatJSON, "INFO")

	// No IDs in context returns the same logger
	if got := logger.WithContext(context.Background()); got != logger {
		t.Error("expected the same logger for an empty context")
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()

	if RequestID(ctx) != "" {
		t.Error("expected empty request ID")
	}
	if UserID(ctx) != "" {
		t.Error("expected empty user ID")
	}

	ctx = WithRequestID(ctx, "abc")
	ctx = WithUserID(ctx, "u1")

	if RequestID(ctx) != "abc" {
		t.Errorf("expected abc, got %q", RequestID(ctx))
	}
	if UserID(ctx) != "u1" {
		t.Errorf("expected u1, got %q", UserID(ctx))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DEBUG", "DEBUG"},
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"WARN", "WARN"},
		{"WARNING", "WARN"},
		{"ERROR", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input).String(); got != tt.expected {
			t.Errorf("parseLevel(%q) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
}
