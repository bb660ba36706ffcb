package log

import (
	"strings"
	"testing"
	"time"
)

// fixed timestamp used across tests for deterministic output.
var testTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func makeEntry(level LogLevel, msg string, fields map[string]interface{}) LogEntry {
	return LogEntry{
		Timestamp: testTime,
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{LogLevel(99), "LEVEL(99)"},
	}
	for _, tt := range tests {
		got := tt.level.String()
		if got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", int(tt.level), got, tt.want)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{"INFO", INFO},
		{"WARN", WARN},
		{"WARNING", WARN},
		{"ERROR", ERROR},
		{"garbage", INFO},
		{"", INFO},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.input); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTextFormatter_Format(t *testing.T) {
	f := &TextFormatter{}
	entry := makeEntry(WARN, "gas budget exhausted", map[string]interface{}{"stage": "selectors"})
	got := f.Format(entry)
	if !strings.Contains(got, "WARN ") {
		t.Errorf("expected level in output, got %q", got)
	}
	if !strings.Contains(got, "gas budget exhausted") {
		t.Errorf("expected message in output, got %q", got)
	}
	if !strings.Contains(got, "stage=selectors") {
		t.Errorf("expected field in output, got %q", got)
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := &JSONFormatter{}
	entry := makeEntry(INFO, "analysis complete", map[string]interface{}{"selectors": 2})
	got := f.Format(entry)
	for _, want := range []string{`"level":"INFO"`, `"msg":"analysis complete"`, `"selectors":2`} {
		if !strings.Contains(got, want) {
			t.Errorf("JSONFormatter.Format() = %q, want substring %q", got, want)
		}
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[string]interface{}{"c": 1, "a": 2, "b": 3}
	keys := sortedKeys(m)
	want := []string{"a", "b", "c"}
	for i, k := range keys {
		if k != want[i] {
			t.Errorf("sortedKeys()[%d] = %q, want %q", i, k, want[i])
		}
	}
}
