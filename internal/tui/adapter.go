package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-disc-burn/internal/orchestrator"
	"github.com/randomizedcoder/go-disc-burn/internal/parser"
)

// Sender is the part of *tea.Program the adapter needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Adapter forwards slot display updates and notifications to a running
// program. It satisfies orchestrator.LineDisplay and orchestrator.Notifier.
type Adapter struct {
	sender Sender
}

var (
	_ orchestrator.LineDisplay = (*Adapter)(nil)
	_ orchestrator.Notifier    = (*Adapter)(nil)
)

// NewAdapter creates an adapter sending to s.
func NewAdapter(s Sender) *Adapter {
	return &Adapter{sender: s}
}

// SetStatus implements orchestrator.Display.
func (a *Adapter) SetStatus(status string) {
	a.sender.Send(StatusMsg(status))
}

// SetOutput implements orchestrator.Display.
func (a *Adapter) SetOutput(text string) {
	a.sender.Send(OutputMsg(text))
}

// AppendOutput implements orchestrator.LineDisplay.
func (a *Adapter) AppendOutput(line string) {
	a.sender.Send(OutputLineMsg{Line: line})
}

// ReplaceOutput implements orchestrator.LineDisplay.
func (a *Adapter) ReplaceOutput(line string) {
	a.sender.Send(OutputLineMsg{Line: line, Replace: true})
}

// SetProgress implements orchestrator.Display.
func (a *Adapter) SetProgress(p parser.ProgressState) {
	a.sender.Send(ProgressMsg(p))
}

// Notify implements orchestrator.Notifier.
func (a *Adapter) Notify(n orchestrator.Notification) {
	a.sender.Send(NotificationMsg(n))
}

// Done tells the program the session finished.
func (a *Adapter) Done(err error) {
	a.sender.Send(DoneMsg{Err: err})
}
