package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_Module(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sel := l.Module("selectors")
	sel.Info("dispatcher found", "selector", "2125b65b")

	out := buf.String()
	if !strings.Contains(out, `"module":"selectors"`) {
		t.Errorf("expected module field in output, got %q", out)
	}
	if !strings.Contains(out, "dispatcher found") {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	Info("cfg resolved", "blocks", 3)
	if !strings.Contains(buf.String(), "cfg resolved") {
		t.Errorf("expected message in default logger output, got %q", buf.String())
	}
}

func TestSetDefault_NilIgnored(t *testing.T) {
	orig := Default()
	SetDefault(nil)
	if Default() != orig {
		t.Error("SetDefault(nil) should not change the default logger")
	}
}
