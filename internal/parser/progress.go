// Package parser classifies the text output of the disc tools.
//
// This file holds ProgressState, the fraction/ETA pair written by the
// Classifier and read by whatever reports progress (TUI, notifications,
// metrics).
//
// The ETA is derived from elapsed wall time and the reported fraction:
//
//	ETA = elapsed * (1 - fraction) / fraction
//
// It is only meaningful strictly between 0 and 1; at either end the
// placeholder "--" is shown instead.
package parser

import (
	"fmt"
	"math"
	"time"
)

// ETAPlaceholder is shown whenever no meaningful estimate exists.
const ETAPlaceholder = "--"

// ProgressState is the progress of one run.
//
// It is owned by the single active run of an orchestrator slot and is only
// touched from that slot's event loop, so it carries no lock.
type ProgressState struct {
	// Fraction complete in [0.0, 1.0].
	Fraction float64

	// ETA is the remaining time as HH:MM:SS, or ETAPlaceholder.
	ETA string

	// Speed is the last write-speed multiplier reported by the recorder
	// (e.g. 16.0 for "16.0x"). 0 when unknown.
	Speed float64
}

// NewProgressState returns a state at zero with the ETA placeholder.
func NewProgressState() *ProgressState {
	p := &ProgressState{}
	p.Reset()
	return p
}

// Reset returns the state to the start-of-run values.
func (p *ProgressState) Reset() {
	p.Fraction = 0
	p.ETA = ETAPlaceholder
	p.Speed = 0
}

// Percent returns the fraction as a percentage.
func (p ProgressState) Percent() float64 {
	return p.Fraction * 100
}

// HasETA reports whether the ETA holds a real estimate.
func (p ProgressState) HasETA() bool {
	return p.ETA != "" && p.ETA != ETAPlaceholder
}

// EstimateRemaining returns elapsed*(1-fraction)/fraction.
// ok is false at fraction <= 0, fraction >= 1 or a non-finite fraction.
func EstimateRemaining(elapsed time.Duration, fraction float64) (remaining time.Duration, ok bool) {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) || fraction <= 0 || fraction >= 1 {
		return 0, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	remaining = time.Duration(float64(elapsed) * (1 - fraction) / fraction)
	return remaining.Round(time.Second), true
}

// EstimateETA returns the formatted ETA for elapsed time and fraction,
// or ETAPlaceholder when no estimate is possible.
func EstimateETA(elapsed time.Duration, fraction float64) string {
	remaining, ok := EstimateRemaining(elapsed, fraction)
	if !ok {
		return ETAPlaceholder
	}
	return FormatETA(remaining)
}

// FormatETA formats a duration as HH:MM:SS.
func FormatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// clampFraction keeps a parsed fraction inside [0, 1].
func clampFraction(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
