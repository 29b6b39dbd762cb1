package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-disc-burn/internal/orchestrator"
	"github.com/randomizedcoder/go-disc-burn/internal/parser"
	"github.com/randomizedcoder/go-disc-burn/internal/stats"
)

// =============================================================================
// Main View Rendering
// =============================================================================

func (m Model) renderView() string {
	sections := []string{
		m.renderHeader(),
		m.renderRun(),
		m.renderProgress(),
		m.renderOutput(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	header := fmt.Sprintf(" go-disc-burn │ %s %s │ Elapsed: %s ",
		m.command,
		m.target,
		stats.FormatDuration(m.Elapsed()),
	)
	return headerStyle.Render(header)
}

// =============================================================================
// Run
// =============================================================================

func (m Model) renderRun() string {
	var lines []string

	device := m.device
	if m.simulation {
		device += mutedStyle.Render(" (simulation)")
	}
	lines = append(lines, RenderKeyValue("Device", device))
	lines = append(lines, m.renderStatus())

	if n := m.notification; n != nil && n.Kind != orchestrator.NotifyProgress {
		lines = append(lines, renderNotification(*n))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderStatus() string {
	if m.running {
		return fmt.Sprintf("%s %s", m.spinner.View(), valueStyle.Render(m.status))
	}
	return fmt.Sprintf("  %s", valueStyle.Render(m.status))
}

func renderNotification(n orchestrator.Notification) string {
	var icon string
	switch n.Kind {
	case orchestrator.NotifyImportant:
		icon = statusError.Render("✗")
	case orchestrator.NotifyInformation:
		icon = statusOK.Render("✓")
	default:
		icon = statusInfo.Render("●")
	}
	text := n.Title
	if n.Content != "" {
		text += ": " + n.Content
	}
	return fmt.Sprintf("%s %s", icon, text)
}

// =============================================================================
// Progress
// =============================================================================

func (m Model) renderProgress() string {
	p := m.progress

	eta := p.ETA
	if !p.HasETA() {
		eta = parser.ETAPlaceholder
	}

	line := lipgloss.JoinHorizontal(lipgloss.Left,
		m.bar.ViewAs(p.Fraction),
		dimStyle.Render("  ETA "),
		etaStyle(p).Render(eta),
		dimStyle.Render("  Speed "),
		SpeedLabel(p.Speed),
	)
	return sectionHeaderStyle.Render("Progress") + "\n" + line
}

func etaStyle(p parser.ProgressState) lipgloss.Style {
	if p.HasETA() {
		return valueStyle
	}
	return mutedStyle
}

// =============================================================================
// Output
// =============================================================================

func (m Model) renderOutput() string {
	content := m.viewport.View()
	if m.transcript.Len() == 0 {
		content = dimStyle.Render("no output yet")
	}
	title := "Output"
	if !m.follow {
		title += statusWarning.Render(" (paused)")
	}
	return sectionHeaderStyle.Render(title) + "\n" + outputBoxStyle.Width(m.viewport.Width+2).Render(content)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	follow := "on"
	if !m.follow {
		follow = "off"
	}
	parts := []string{
		"q quit",
		"↑/↓ scroll",
		"f follow (" + follow + ")",
	}
	if m.metricsAddr != "" {
		parts = append(parts, "metrics http://"+m.metricsAddr+"/metrics")
	}
	if m.err != nil {
		parts = append(parts, valueBadStyle.Render(m.err.Error()))
	}
	return footerStyle.Render(strings.Join(parts, " • "))
}
