package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "WARN", expected: slog.LevelWarn},
		{input: "warning", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "info", expected: slog.LevelInfo},
		{input: "", expected: slog.LevelInfo},
		{input: "verbose", expected: slog.LevelInfo},
	}

	for _, testCase := range testCases {
		if level := ParseLevel(testCase.input); level != testCase.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", testCase.input, level, testCase.expected)
		}
	}
}

func TestSetupWriter_JSONWithRunID(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buffer bytes.Buffer
	SetupWriter(&buffer, "info", "json")

	ctx := WithRunID(context.Background(), "run-42")
	FromContext(ctx).Info("batch started", "records", 3)
	FromContext(ctx).Debug("suppressed")

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buffer.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["run_id"] != "run-42" || entry["msg"] != "batch started" || entry["records"] != float64(3) {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestSetupWriter_TextWithComponent(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buffer bytes.Buffer
	SetupWriter(&buffer, "debug", "text")
	WithComponent("batch").Debug("hello")

	output := buffer.String()
	if !strings.Contains(output, "component=batch") || !strings.Contains(output, "msg=hello") {
		t.Errorf("unexpected text output: %q", output)
	}
}

func TestFromContext_NoRunID(t *testing.T) {
	if RunID(context.Background()) != "" {
		t.Error("expected empty run id")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected a logger")
	}
}
