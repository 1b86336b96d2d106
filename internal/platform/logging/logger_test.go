package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    Level
		wantErr bool
	}{
		{raw: "", want: LevelInfo},
		{raw: "DEBUG", want: LevelDebug},
		{raw: " warn ", want: LevelWarn},
		{raw: "error", want: LevelError},
		{raw: "verbose", want: LevelInfo, wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tc.raw, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo).With("component", "optimizer")

	logger.DebugContext(context.Background(), "hidden")
	logger.InfoContext(context.Background(), "squad solved",
		"budget", 1000,
		"elapsed", 1500*time.Microsecond,
		"error", errors.New("none"),
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("unexpected line count: got=%d want=1", len(lines))
	}

	var got map[string]any
	if err := sonic.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if got["msg"] != "squad solved" {
		t.Fatalf("unexpected msg: %v", got["msg"])
	}
	if got["component"] != "optimizer" {
		t.Fatalf("unexpected component: %v", got["component"])
	}
	if got["elapsed_ms"] != 1.5 {
		t.Fatalf("unexpected elapsed_ms: %v", got["elapsed_ms"])
	}
	if got["error"] != "none" {
		t.Fatalf("unexpected error field: %v", got["error"])
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	logger.With("k", "v").Warn("still no panic")
}
