package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"trace", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// Anything but "text" gets JSON, which is what log shippers expect.
func TestNewLoggerWithWriter_FormatSelection(t *testing.T) {
	tests := []struct {
		format   string
		wantJSON bool
	}{
		{"json", true},
		{"", true},
		{"logfmt", true},
		{"text", false},
		{"TEXT", false},
	}
	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			NewLoggerWithWriter(&buf, tt.format, "info").Info("run_exited", "exit_code", 0)

			var rec map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &rec) == nil
			if isJSON != tt.wantJSON {
				t.Fatalf("JSON output = %v, want %v: %s", isJSON, tt.wantJSON, buf.String())
			}
			if isJSON && (rec["msg"] != "run_exited" || rec["exit_code"] != float64(0)) {
				t.Errorf("record = %v", rec)
			}
			if !isJSON && !strings.Contains(buf.String(), "exit_code=0") {
				t.Errorf("text output = %q", buf.String())
			}
		})
	}
}

func TestNewLogger_VerboseRaisesLevel(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		verbose    bool
		wantDebug  bool
		wantSource bool
	}{
		{"error level", "error", false, false, false},
		{"debug level", "debug", false, true, false},
		{"verbose overrides error", "error", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, "json", tt.level, tt.verbose)
			logger.Debug("slot_line", "seq", 1)

			if got := buf.Len() > 0; got != tt.wantDebug {
				t.Fatalf("debug record written = %v, want %v", got, tt.wantDebug)
			}
			if !tt.wantDebug {
				return
			}
			var rec map[string]any
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, ok := rec[slog.SourceKey]; ok != tt.wantSource {
				t.Errorf("source present = %v, want %v", ok, tt.wantSource)
			}
		})
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	ctx := context.Background()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if logger.Enabled(ctx, level) {
			t.Errorf("discard logger enabled at %v", level)
		}
	}
	// must not panic on the one level it keeps
	logger.Error("dropped", "error", "boom")
}

func TestSetDefault(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	var buf bytes.Buffer
	SetDefault(NewLoggerWithWriter(&buf, "json", "warn"))

	slog.Info("ignored")
	slog.Warn("preflight_warning", "check", "cache_dir")
	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Errorf("info record passed a warn default: %s", out)
	}
	if !strings.Contains(out, `"check":"cache_dir"`) {
		t.Errorf("warn record missing: %s", out)
	}
}
