package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/randomizedcoder/go-disc-burn/internal/parser"
)

// Display receives the visible state of the current run. All calls come from
// the slot loop, one at a time.
type Display interface {
	SetStatus(status string)
	SetOutput(text string)
	SetProgress(p parser.ProgressState)
}

// LineDisplay is a Display that can take the transcript one line at a time.
// The slot prefers it over SetOutput, which carries the whole text.
type LineDisplay interface {
	Display

	// AppendOutput adds one line to the transcript.
	AppendOutput(line string)

	// ReplaceOutput swaps the final line of the transcript for line.
	ReplaceOutput(line string)
}

// NotificationKind selects how prominently a notification is shown.
type NotificationKind int

const (
	NotifyProgress NotificationKind = iota
	NotifyInformation
	NotifyImportant
)

// String returns a human-readable name for the kind.
func (k NotificationKind) String() string {
	switch k {
	case NotifyProgress:
		return "progress"
	case NotifyInformation:
		return "information"
	case NotifyImportant:
		return "important"
	default:
		return "unknown"
	}
}

// Notification is one message for the notification area. Notifications
// with the same ID replace each other.
type Notification struct {
	ID       string
	Kind     NotificationKind
	Title    string
	Content  string
	Progress float64
}

// Notifier shows notifications.
type Notifier interface {
	Notify(n Notification)
}

// LogDisplay writes display updates to a logger.
type LogDisplay struct {
	Logger *slog.Logger
}

// SetStatus logs the status line.
func (d LogDisplay) SetStatus(status string) {
	d.Logger.Info("display_status", "status", status)
}

// SetOutput logs the size of the transcript; the lines themselves are
// already mirrored by the output handler.
func (d LogDisplay) SetOutput(text string) {
	d.Logger.Debug("display_output",
		"bytes", len(text),
		"lines", strings.Count(text, "\n"),
	)
}

// AppendOutput logs nothing; the output handler mirrors every line.
func (d LogDisplay) AppendOutput(line string) {}

// ReplaceOutput logs nothing, like AppendOutput.
func (d LogDisplay) ReplaceOutput(line string) {}

// SetProgress logs the progress state.
func (d LogDisplay) SetProgress(p parser.ProgressState) {
	d.Logger.Debug("display_progress",
		"percent", p.Percent(),
		"eta", p.ETA,
		"speed", p.Speed,
	)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at a level matching its kind.
func (n LogNotifier) Notify(note Notification) {
	level := slog.LevelDebug
	switch note.Kind {
	case NotifyInformation:
		level = slog.LevelInfo
	case NotifyImportant:
		level = slog.LevelWarn
	}
	n.Logger.Log(context.Background(), level, "notification",
		"id", note.ID,
		"kind", note.Kind.String(),
		"title", note.Title,
		"content", note.Content,
		"progress", note.Progress,
	)
}
