package tui

import (
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-disc-burn/internal/orchestrator"
	"github.com/randomizedcoder/go-disc-burn/internal/parser"
)

// =============================================================================
// Helpers
// =============================================================================

func testModel() Model {
	return New(Config{
		Command:     "burn",
		Target:      "/tmp/disc.iso",
		Device:      "1,0,0",
		MetricsAddr: "127.0.0.1:17092",
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *fakeSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

// =============================================================================
// Tests: New / Init
// =============================================================================

func TestNew(t *testing.T) {
	m := testModel()

	if m.command != "burn" || m.target != "/tmp/disc.iso" || m.device != "1,0,0" {
		t.Errorf("config not copied: %+v", m)
	}
	if m.width != 80 || m.height != 24 {
		t.Errorf("size = %dx%d, want 80x24", m.width, m.height)
	}
	if !m.follow {
		t.Error("follow should default to on")
	}
	if m.Progress().ETA != parser.ETAPlaceholder {
		t.Errorf("ETA = %q, want placeholder", m.Progress().ETA)
	}
	if m.Running() {
		t.Error("Running() = true before any status")
	}
}

func TestModel_Init(t *testing.T) {
	if cmd := testModel().Init(); cmd == nil {
		t.Error("Init() returned nil command")
	}
}

// =============================================================================
// Tests: Update
// =============================================================================

func TestModel_Update_Quit(t *testing.T) {
	for _, key := range []string{"q", "esc", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			var msg tea.KeyMsg
			switch key {
			case "esc":
				msg = tea.KeyMsg{Type: tea.KeyEsc}
			case "ctrl+c":
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			default:
				msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
			}
			m, cmd := update(t, testModel(), msg)
			if !m.quitting {
				t.Error("quitting = false")
			}
			if cmd == nil {
				t.Error("expected tea.Quit command")
			}
			if m.View() != "" {
				t.Error("View() should be empty while quitting")
			}
		})
	}
}

func TestModel_Update_ToggleFollow(t *testing.T) {
	m := testModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if m.follow {
		t.Error("follow still on after f")
	}
	if !strings.Contains(m.View(), "(paused)") {
		t.Error("paused output pane not marked")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if !m.follow {
		t.Error("follow still off after second f")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m, _ := update(t, testModel(), tea.WindowSizeMsg{Width: 120, Height: 40})

	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}
	if m.viewport.Width != 116 || m.viewport.Height != 40-chromeHeight {
		t.Errorf("viewport = %dx%d", m.viewport.Width, m.viewport.Height)
	}

	// tiny windows keep a usable minimum
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 10, Height: 5})
	if m.viewport.Width < 20 || m.viewport.Height < 3 {
		t.Errorf("viewport = %dx%d below minimum", m.viewport.Width, m.viewport.Height)
	}
}

func TestModel_Update_RunLifecycle(t *testing.T) {
	m := testModel()

	m, _ = update(t, m, StatusMsg("Burning disc"))
	if !m.Running() || m.Status() != "Burning disc" {
		t.Fatalf("after status: running=%v status=%q", m.Running(), m.Status())
	}

	m, _ = update(t, m, OutputMsg("Track 01:   50 of  100 MB written\n"))
	m, _ = update(t, m, ProgressMsg(parser.ProgressState{Fraction: 0.5, ETA: "00:01:00", Speed: 8}))
	m, _ = update(t, m, NotificationMsg(orchestrator.Notification{Kind: orchestrator.NotifyProgress, Progress: 0.5}))
	if !m.Running() {
		t.Error("progress notification ended the run")
	}
	if m.Progress().Fraction != 0.5 {
		t.Errorf("Fraction = %v", m.Progress().Fraction)
	}

	view := m.View()
	for _, want := range []string{"Burning disc", "00:01:00", "8.0x", "50 of  100 MB"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = update(t, m, StatusMsg("The data doesn't fit on the disc"))
	m, _ = update(t, m, NotificationMsg(orchestrator.Notification{
		Kind:    orchestrator.NotifyImportant,
		Title:   "Burning disc.iso",
		Content: "The data doesn't fit on the disc",
	}))
	if m.Running() {
		t.Error("final notification did not end the run")
	}
	if !strings.Contains(m.View(), "✗ Burning disc.iso: The data doesn't fit on the disc") {
		t.Errorf("failure notification not rendered:\n%s", m.View())
	}
}

func TestModel_Update_OutputLines(t *testing.T) {
	m := testModel()

	m, _ = update(t, m, OutputLineMsg{Line: "Using DVD-Video"})
	m, _ = update(t, m, OutputLineMsg{Line: " 10.00% done"})
	m, _ = update(t, m, OutputLineMsg{Line: " 20.00% done", Replace: true})
	if !m.outputDirty {
		t.Fatal("line updates did not mark the output pane")
	}
	if got := m.transcript.String(); got != "Using DVD-Video\n 20.00% done\n" {
		t.Errorf("transcript = %q", got)
	}

	// the viewport catches up on the next tick
	m, _ = update(t, m, TickMsg{})
	if m.outputDirty {
		t.Error("tick did not refresh the output pane")
	}
	view := m.View()
	if !strings.Contains(view, " 20.00% done") || strings.Contains(view, " 10.00% done") {
		t.Errorf("view does not show the replaced line:\n%s", view)
	}

	// a full reset wins over earlier lines
	m, _ = update(t, m, OutputMsg(""))
	if !strings.Contains(m.View(), "no output yet") {
		t.Error("reset did not clear the output pane")
	}
}

func TestModel_Update_Done(t *testing.T) {
	boom := errors.New("boom")
	m, cmd := update(t, testModel(), DoneMsg{Err: boom})
	if !m.quitting || cmd == nil {
		t.Error("DoneMsg should quit")
	}
	if !errors.Is(m.Err(), boom) {
		t.Errorf("Err() = %v", m.Err())
	}
}

func TestModel_Update_Tick(t *testing.T) {
	_, cmd := update(t, testModel(), TickMsg{})
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
}

// =============================================================================
// Tests: View
// =============================================================================

func TestModel_View_Idle(t *testing.T) {
	view := testModel().View()
	for _, want := range []string{"go-disc-burn", "burn /tmp/disc.iso", "Device", "no output yet", "N/A", "q quit", "127.0.0.1:17092"} {
		if !strings.Contains(view, want) {
			t.Errorf("idle view missing %q", want)
		}
	}
}

func TestModel_View_Simulation(t *testing.T) {
	m := New(Config{Command: "burn", Device: "/dev/sr0", Simulation: true})
	if !strings.Contains(m.View(), "(simulation)") {
		t.Error("simulation not shown")
	}
}

// =============================================================================
// Tests: Adapter
// =============================================================================

func TestAdapter_ForwardsMessages(t *testing.T) {
	sender := &fakeSender{}
	a := NewAdapter(sender)

	a.SetStatus("Building disc image")
	a.SetOutput("line\n")
	a.SetProgress(parser.ProgressState{Fraction: 0.25})
	a.Notify(orchestrator.Notification{ID: "run-1", Kind: orchestrator.NotifyInformation})
	a.Done(nil)
	a.AppendOutput("next")
	a.ReplaceOutput("again")

	if len(sender.msgs) != 7 {
		t.Fatalf("sent %d messages, want 7", len(sender.msgs))
	}
	if got, ok := sender.msgs[0].(StatusMsg); !ok || got != "Building disc image" {
		t.Errorf("msgs[0] = %#v", sender.msgs[0])
	}
	if got, ok := sender.msgs[1].(OutputMsg); !ok || got != "line\n" {
		t.Errorf("msgs[1] = %#v", sender.msgs[1])
	}
	if got, ok := sender.msgs[2].(ProgressMsg); !ok || got.Fraction != 0.25 {
		t.Errorf("msgs[2] = %#v", sender.msgs[2])
	}
	if got, ok := sender.msgs[3].(NotificationMsg); !ok || got.ID != "run-1" {
		t.Errorf("msgs[3] = %#v", sender.msgs[3])
	}
	if _, ok := sender.msgs[4].(DoneMsg); !ok {
		t.Errorf("msgs[4] = %#v", sender.msgs[4])
	}
	if got, ok := sender.msgs[5].(OutputLineMsg); !ok || got.Line != "next" || got.Replace {
		t.Errorf("msgs[5] = %#v", sender.msgs[5])
	}
	if got, ok := sender.msgs[6].(OutputLineMsg); !ok || got.Line != "again" || !got.Replace {
		t.Errorf("msgs[6] = %#v", sender.msgs[6])
	}
}

func TestSpeedLabel(t *testing.T) {
	if !strings.Contains(SpeedLabel(0), "N/A") {
		t.Error("zero speed should render N/A")
	}
	if !strings.Contains(SpeedLabel(16), "16.0x") {
		t.Errorf("SpeedLabel(16) = %q", SpeedLabel(16))
	}
}

func TestRenderKeyValue(t *testing.T) {
	got := RenderKeyValue("Device", "/dev/sr0")
	if !strings.Contains(got, "Device:") || !strings.Contains(got, "/dev/sr0") {
		t.Errorf("RenderKeyValue() = %q", got)
	}
}
