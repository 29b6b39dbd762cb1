package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func newTestOutputHandler(verbose bool) (*OutputHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "debug")
	return NewOutputHandler("cdrecord", logger, verbose), &buf
}

func TestOutputHandler_HandleLine(t *testing.T) {
	h, buf := newTestOutputHandler(true)
	h.HandleLine("Starting to write CD/DVD/BD at speed 16.0")

	out := buf.String()
	if !strings.Contains(out, "tool_output") || !strings.Contains(out, "tool=cdrecord") {
		t.Errorf("unexpected log output: %s", out)
	}
	if h.Total() != 1 {
		t.Errorf("Total() = %d, want 1", h.Total())
	}
}

func TestOutputHandler_Truncation(t *testing.T) {
	h, _ := newTestOutputHandler(false)
	h.HandleLine(strings.Repeat("x", MaxLineLength+10))

	lines := h.RecentLines(1)
	if len(lines) != 1 {
		t.Fatalf("RecentLines(1) = %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[0], "...(truncated)") {
		t.Error("long line was not truncated")
	}
	if len(lines[0]) != MaxLineLength+len("...(truncated)") {
		t.Errorf("truncated length = %d", len(lines[0]))
	}
}

func TestOutputHandler_RecentLines(t *testing.T) {
	h, _ := newTestOutputHandler(false)
	for i := 0; i < MaxBufferedLines+20; i++ {
		h.HandleLine(fmt.Sprintf("line %d", i))
	}

	lines := h.RecentLines(3)
	want := []string{
		fmt.Sprintf("line %d", MaxBufferedLines+17),
		fmt.Sprintf("line %d", MaxBufferedLines+18),
		fmt.Sprintf("line %d", MaxBufferedLines+19),
	}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("RecentLines(3) = %v, want %v", lines, want)
	}

	if got := len(h.RecentLines(1000)); got != MaxBufferedLines {
		t.Errorf("RecentLines(1000) = %d lines, want %d", got, MaxBufferedLines)
	}
}

func TestOutputHandler_RecentLines_FewerThanAsked(t *testing.T) {
	h, _ := newTestOutputHandler(false)
	h.HandleLine("one")
	h.HandleLine("")
	h.HandleLine("three")

	lines := h.RecentLines(10)
	if len(lines) != 3 || lines[0] != "one" || lines[1] != "" || lines[2] != "three" {
		t.Errorf("RecentLines(10) = %q", lines)
	}
}

func TestOutputHandler_Reset(t *testing.T) {
	h, _ := newTestOutputHandler(false)
	h.HandleLine("cdrecord: Data will not fit on any disk.")
	h.Reset()

	if h.Total() != 0 {
		t.Errorf("Total() after Reset = %d", h.Total())
	}
	if len(h.RecentLines(10)) != 0 {
		t.Error("RecentLines after Reset should be empty")
	}
	if len(h.CountErrors()) != 0 {
		t.Error("CountErrors after Reset should be empty")
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want slog.Level
	}{
		{"mkisofs: Unable to make a DVD-Video image.", slog.LevelWarn},
		{"cdrecord: Data will not fit on any disk.", slog.LevelWarn},
		{"cdrecord: WARNING: Data may not fit on current disk.", slog.LevelWarn},
		{"cdrecord: Input/output error. write_g1: scsi sendcmd: no error", slog.LevelWarn},
		{" 42.17% done, estimate finish Sat Jan  4 12:00:00 2025", slog.LevelDebug},
		{"Track 01:   12 of  650 MB written (fifo 100%) [buf  98%]  16.1x.", slog.LevelDebug},
		{"Volume id: HOLIDAY", slog.LevelDebug},
		{"Total of 0 errors", slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := ClassifyLine(tt.line); got != tt.want {
				t.Errorf("ClassifyLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestOutputHandler_CountErrors(t *testing.T) {
	h, _ := newTestOutputHandler(false)
	h.HandleLine("cdrecord: Cannot open SCSI driver!")
	h.HandleLine("cdrecord: Cannot allocate memory")
	h.HandleLine("cdrecord: Data will not fit on any disk.")
	h.HandleLine("Fixating...")

	counts := h.CountErrors()
	if counts["Cannot"] != 2 {
		t.Errorf("Cannot = %d, want 2", counts["Cannot"])
	}
	if counts["will not fit"] != 1 {
		t.Errorf("will not fit = %d, want 1", counts["will not fit"])
	}
}

func TestOutputHandler_Verbosity(t *testing.T) {
	t.Run("quiet_skips_debug", func(t *testing.T) {
		h, buf := newTestOutputHandler(false)
		h.HandleLine("Volume id: HOLIDAY")
		if buf.Len() != 0 {
			t.Errorf("non-verbose handler logged a debug line: %s", buf.String())
		}
		if h.Total() != 1 {
			t.Error("line should still be buffered")
		}
	})

	t.Run("quiet_keeps_warnings", func(t *testing.T) {
		h, buf := newTestOutputHandler(false)
		h.HandleLine("mkisofs: Unable to make a DVD-Video image.")
		if !strings.Contains(buf.String(), "level=WARN") {
			t.Errorf("warning not logged: %s", buf.String())
		}
	})

	t.Run("verbose_logs_debug", func(t *testing.T) {
		h, buf := newTestOutputHandler(true)
		h.HandleLine("Volume id: HOLIDAY")
		if !strings.Contains(buf.String(), "Volume id") {
			t.Error("verbose handler should log debug lines")
		}
	})
}

func TestOutputHandler_SetTool(t *testing.T) {
	h, buf := newTestOutputHandler(true)
	h.SetTool("mkisofs")
	h.HandleLine("Using VIDEO_000.IFO")
	if !strings.Contains(buf.String(), "tool=mkisofs") {
		t.Errorf("tool not updated: %s", buf.String())
	}
}

func TestNewOutputHandler_NilLogger(t *testing.T) {
	h := NewOutputHandler("isoinfo", nil, true)
	h.HandleLine("no panic")
}
