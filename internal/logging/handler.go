package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the longest tool line logged before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the number of recent lines kept for the exit summary.
	MaxBufferedLines = 100
)

// OutputHandler mirrors tool output into the structured log.
// It keeps the most recent lines in a ring so failures can be summarized
// after the tool exited, and picks a log level from the line content.
type OutputHandler struct {
	tool    string
	logger  *slog.Logger
	verbose bool

	mu     sync.Mutex
	buffer []string
	bufIdx int
	total  int
}

// NewOutputHandler creates a handler for the named tool.
func NewOutputHandler(tool string, logger *slog.Logger, verbose bool) *OutputHandler {
	if logger == nil {
		logger = NewDiscardLogger()
	}
	return &OutputHandler{
		tool:    tool,
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// SetTool changes the tool name attached to subsequent log records.
func (h *OutputHandler) SetTool(tool string) {
	h.mu.Lock()
	h.tool = tool
	h.mu.Unlock()
}

// Reset drops all buffered lines. Called at the start of every run.
func (h *OutputHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.buffer {
		h.buffer[i] = ""
	}
	h.bufIdx = 0
	h.total = 0
}

// HandleLine records and logs one line of tool output.
func (h *OutputHandler) HandleLine(line string) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.total++
	tool := h.tool
	h.mu.Unlock()

	level := ClassifyLine(line)
	if !h.verbose && level == slog.LevelDebug {
		return
	}
	h.logger.Log(context.Background(), level, "tool_output",
		"tool", tool,
		"line", line,
	)
}

// ClassifyLine picks a log level for a tool output line.
func ClassifyLine(line string) slog.Level {
	lower := strings.ToLower(line)

	switch {
	case strings.Contains(lower, "unable to"),
		strings.Contains(lower, "cannot"),
		strings.Contains(lower, "will not fit"),
		strings.Contains(lower, "i/o error"),
		strings.Contains(lower, "error") && !strings.Contains(lower, "0 errors"):
		return slog.LevelWarn
	case strings.Contains(lower, "warning"),
		strings.Contains(lower, "may not fit"):
		return slog.LevelWarn
	case strings.Contains(lower, "% done"),
		strings.Contains(lower, "mb written"):
		// progress chatter
		return slog.LevelDebug
	default:
		return slog.LevelDebug
	}
}

// RecentLines returns up to n of the most recent lines, oldest first.
func (h *OutputHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}
	if n > h.total {
		n = h.total
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		lines = append(lines, h.buffer[idx])
	}
	return lines
}

// Total returns the number of lines handled since the last Reset.
func (h *OutputHandler) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// ErrorPatterns are tool messages counted for the exit summary.
var ErrorPatterns = []string{
	"Unable to",
	"Cannot",
	"will not fit",
	"may not fit",
	"Input/output error",
	"No disk",
	"Permission denied",
}

// CountErrors counts occurrences of ErrorPatterns in the buffered lines.
func (h *OutputHandler) CountErrors() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[string]int)
	for _, line := range h.buffer {
		if line == "" {
			continue
		}
		for _, pattern := range ErrorPatterns {
			if strings.Contains(line, pattern) {
				counts[pattern]++
			}
		}
	}
	return counts
}
