package parser

import (
	"regexp"
	"strconv"
	"time"
)

// Progress markers. Only these literal shapes are recognized; anything else
// is ordinary output.
var (
	// mkisofs / isoinfo: " 12.34% done, estimate finish Sat Jan  4 12:00:00 2025"
	percentDoneRe = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)%\s+done`)

	// cdrecord -v: "Track 01:   12 of  650 MB written (fifo 100%) [buf  98%]  16.1x."
	trackWrittenRe = regexp.MustCompile(`^\s*Track\s+\d+:\s+(\d+)\s+of\s+(\d+)\s+MB\s+written`)

	// trailing write speed of a cdrecord progress line: "16.1x."
	writeSpeedRe = regexp.MustCompile(`(\d+(?:\.\d+)?)x\.?\s*$`)
)

// ClassifierStats counts what the classifier has seen in the current run.
type ClassifierStats struct {
	Lines        int64
	PercentLines int64
	FatalLines   int64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock replaces time.Now, for deterministic ETA tests.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// Classifier turns tool output lines into display decisions and progress.
//
// It is built once per orchestrator slot and reused across runs; Reset must
// be called at the start of every run. It is not safe for concurrent use:
// the owning event loop is its only caller.
type Classifier struct {
	progress *ProgressState
	now      func() time.Time

	// per-run state
	start      time.Time
	lastStatus string
	hasStatus  bool
	stats      ClassifierStats
}

// NewClassifier creates a classifier writing into progress.
func NewClassifier(progress *ProgressState, opts ...Option) *Classifier {
	if progress == nil {
		progress = NewProgressState()
	}
	c := &Classifier{
		progress: progress,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset clears all per-run state and restarts the elapsed-time origin.
func (c *Classifier) Reset() {
	c.start = c.now()
	c.lastStatus = ""
	c.hasStatus = false
	c.stats = ClassifierStats{}
	c.progress.Reset()
}

// Progress returns a copy of the current progress state.
func (c *Classifier) Progress() ProgressState {
	return *c.progress
}

// Stats returns the counters of the current run.
func (c *Classifier) Stats() ClassifierStats {
	return c.stats
}

// ClassifyBuildLine classifies one line of mastering output.
//
// mkisofs reports a malformed DVD tree with a line that is appended like any
// other; ScanFatal(DialectBuild, text) recognizes it once the tool exited.
func (c *Classifier) ClassifyBuildLine(text, line string) (string, Result) {
	return c.Classify(DialectBuild, text, line)
}

// ClassifyBurnLine classifies one line of recording output.
func (c *Classifier) ClassifyBurnLine(text, line string) (string, Result) {
	return c.Classify(DialectBurn, text, line)
}

// ClassifyInspectLine classifies one line of inspection output.
func (c *Classifier) ClassifyInspectLine(text, line string) (string, Result) {
	return c.Classify(DialectInspect, text, line)
}

// Classify applies the rules of dialect d to line and returns the new text.
func (c *Classifier) Classify(d Dialect, text, line string) (string, Result) {
	sink := &textSink{text: text}
	result, _ := c.classify(d, sink, line)
	return sink.text, result
}

// ClassifyInto is Classify editing t in place. The returned Edit tells
// whether line was appended or replaced the final line.
func (c *Classifier) ClassifyInto(d Dialect, t *Transcript, line string) (Result, Edit) {
	return c.classify(d, t, line)
}

// classify is the decision logic shared by all dialects:
//
//   - a fatal signature is appended and its negative code returned
//   - a progress marker replaces the previous status line and updates progress
//   - everything else is appended
//
// The status line is replaced only while it is still the final line of the
// text; after the first tick or an ordinary line the marker is appended.
func (c *Classifier) classify(d Dialect, out lineSink, line string) (Result, Edit) {
	c.stats.Lines++

	if sig, ok := matchLine(d, line); ok {
		c.stats.FatalLines++
		c.hasStatus = false
		out.AppendLine(line)
		return sig.Result, EditAppend
	}

	if fraction, speed, ok := parseProgress(d, line); ok {
		c.stats.PercentLines++
		c.update(fraction, speed)

		edit := EditAppend
		if c.hasStatus && out.EndsWithLine(c.lastStatus) {
			out.ReplaceLastLine(line)
			edit = EditReplace
		} else {
			out.AppendLine(line)
		}
		c.lastStatus = line
		c.hasStatus = true
		return Percent, edit
	}

	c.hasStatus = false
	out.AppendLine(line)
	return NoChange, EditAppend
}

// update writes a new fraction and recomputes the ETA.
func (c *Classifier) update(fraction, speed float64) {
	c.progress.Fraction = fraction
	c.progress.ETA = EstimateETA(c.now().Sub(c.start), fraction)
	if speed > 0 {
		c.progress.Speed = speed
	}
}

// parseProgress extracts a fraction (and for the recorder a speed) from a
// progress marker of dialect d.
func parseProgress(d Dialect, line string) (fraction, speed float64, ok bool) {
	if d == DialectBurn {
		if m := trackWrittenRe.FindStringSubmatch(line); m != nil {
			written, err1 := strconv.ParseFloat(m[1], 64)
			total, err2 := strconv.ParseFloat(m[2], 64)
			if err1 == nil && err2 == nil && total > 0 {
				if s := writeSpeedRe.FindStringSubmatch(line); s != nil {
					speed, _ = strconv.ParseFloat(s[1], 64)
				}
				return clampFraction(written / total), speed, true
			}
		}
	}

	if m := percentDoneRe.FindStringSubmatch(line); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return clampFraction(pct / 100), 0, true
		}
	}

	return 0, 0, false
}
