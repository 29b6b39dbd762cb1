package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/randomizedcoder/go-disc-burn/internal/process"
)

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════════════════════════\n"
	ruleLight = "───────────────────────────────────────────────────────────────────────────────\n"
)

// RunRecord is one finished run as shown in the summary.
type RunRecord struct {
	Action   string
	Outcome  string
	ExitCode int
	Duration time.Duration
	Message  string
}

// SummaryConfig holds everything the exit summary prints.
type SummaryConfig struct {
	// Duration is the total session wall time.
	Duration time.Duration

	Device string
	Media  string

	// ImagePath and ImageBytes describe the image built or burned, if any.
	ImagePath  string
	ImageBytes int64

	Runs []RunRecord

	// ExitCodes is a map of exit codes to counts (from metrics.Collector).
	ExitCodes map[int]int64

	// Speed is nil when the recorder never reported a speed.
	Speed *SpeedStats

	// ErrorCounts and RecentOutput come from the tool output mirror and are
	// printed only when the last run did not succeed.
	ErrorCounts  map[string]int
	RecentOutput []string

	MetricsAddr string
}

// FormatExitSummary formats the session summary printed at program exit.
func FormatExitSummary(cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(ruleHeavy)
	b.WriteString("                          go-disc-burn Exit Summary\n")
	b.WriteString(ruleHeavy)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Session Duration:       %s\n", FormatDuration(cfg.Duration))
	if cfg.Device != "" {
		fmt.Fprintf(&b, "Device:                 %s\n", cfg.Device)
	}
	if cfg.Media != "" {
		fmt.Fprintf(&b, "Media:                  %s\n", cfg.Media)
	}
	if cfg.ImagePath != "" {
		fmt.Fprintf(&b, "Image:                  %s (%s)\n", cfg.ImagePath, FormatBytes(cfg.ImageBytes))
	}
	b.WriteString("\n")

	if len(cfg.Runs) > 0 {
		section(&b, "Runs")
		fmt.Fprintf(&b, "  %-10s %-18s %6s %10s\n", "Action", "Outcome", "Exit", "Duration")
		b.WriteString("  " + strings.Repeat("─", 47) + "\n")
		for _, r := range cfg.Runs {
			fmt.Fprintf(&b, "  %-10s %-18s %6d %10s\n", r.Action, r.Outcome, r.ExitCode, FormatDuration(r.Duration))
			if r.Message != "" {
				fmt.Fprintf(&b, "    → %s\n", r.Message)
			}
		}
		b.WriteString("\n")
	}

	if cfg.Speed != nil {
		section(&b, "Write Speed")
		fmt.Fprintf(&b, "  Samples:              %d\n", cfg.Speed.Samples)
		fmt.Fprintf(&b, "  Min / Mean / Max:     %s / %s / %s\n",
			FormatSpeed(cfg.Speed.Min), FormatSpeed(cfg.Speed.Mean), FormatSpeed(cfg.Speed.Max))
		fmt.Fprintf(&b, "  P50 (median):         %s\n", FormatSpeed(cfg.Speed.P50))
		fmt.Fprintf(&b, "  P95:                  %s\n", FormatSpeed(cfg.Speed.P95))
		b.WriteString("\n")
	}

	if len(cfg.ExitCodes) > 0 {
		section(&b, "Exit Codes")
		codes := make([]int, 0, len(cfg.ExitCodes))
		for code := range cfg.ExitCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "  %3d %-16s %d\n", code, process.ExitCodeLabel(code), cfg.ExitCodes[code])
		}
		b.WriteString("\n")
	}

	if len(cfg.ErrorCounts) > 0 {
		section(&b, "Tool Errors")
		patterns := make([]string, 0, len(cfg.ErrorCounts))
		for p := range cfg.ErrorCounts {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)
		for _, p := range patterns {
			fmt.Fprintf(&b, "  %-22s %d\n", p+":", cfg.ErrorCounts[p])
		}
		b.WriteString("\n")
	}

	if len(cfg.RecentOutput) > 0 {
		section(&b, "Last Output")
		for _, line := range cfg.RecentOutput {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}
	b.WriteString(ruleHeavy)

	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(ruleLight)
	pad := (len(ruleLight)/3 - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(ruleLight)
	b.WriteString("\n")
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatBytes formats bytes with KB/MB/GB suffixes.
func FormatBytes(n int64) string {
	if n >= 1_000_000_000 {
		return fmt.Sprintf("%.2f GB", float64(n)/1_000_000_000)
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.2f KB", float64(n)/1_000)
	}
	return fmt.Sprintf("%d B", n)
}

// FormatSpeed formats a recorder speed multiplier ("16.0x").
func FormatSpeed(x float64) string {
	return fmt.Sprintf("%.1fx", x)
}
