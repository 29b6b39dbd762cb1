package parser

import "strings"

// Dialect identifies the output grammar of one of the disc tools.
type Dialect int

const (
	// DialectBuild is the ISO-mastering tool (mkisofs).
	DialectBuild Dialect = iota

	// DialectBurn is the recording tool (cdrecord).
	DialectBurn

	// DialectInspect is the inspection tool (isoinfo).
	DialectInspect
)

// String returns a human-readable name for the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectBuild:
		return "build"
	case DialectBurn:
		return "burn"
	case DialectInspect:
		return "inspect"
	default:
		return "unknown"
	}
}

// Result is the classification of a single output line.
//
// Non-negative values describe how the line changes the display; negative
// values are fatal conditions recognized inside otherwise normal output.
// Fatal codes are independent of the exit status: cdrecord exits the same
// way whether or not the payload fit.
type Result int

const (
	// CapacityExceeded: the payload does not fit on the inserted medium.
	CapacityExceeded Result = -1

	// NoChange: append the line verbatim.
	NoChange Result = 0

	// Percent: the line replaces the previous status line and the
	// progress state was updated.
	Percent Result = 1
)

// IsFatal reports whether the result is a recognized fatal condition.
func (r Result) IsFatal() bool {
	return r < 0
}

// String returns a human-readable name for the result.
func (r Result) String() string {
	switch r {
	case CapacityExceeded:
		return "capacity_exceeded"
	case NoChange:
		return "no_change"
	case Percent:
		return "percent"
	default:
		return "unknown"
	}
}

// Signature is one known failure phrase of a tool dialect.
type Signature struct {
	Dialect Dialect

	// Phrase is matched literally (substring) against output.
	Phrase string

	// Result is what the per-line classifier returns for a matching line.
	// NoChange means the phrase is only recognized by ScanFatal after exit.
	Result Result

	// Condition is a short machine-readable key (metrics label, logs).
	Condition string

	// Message is the user-facing explanation.
	Message string
}

// Signatures is the fixed table of recognized failure phrases.
//
// The phrases belong to specific tool versions (cdrtools 3.x, mkisofs from
// the same suite). Newer or forked tools may word things differently; those
// failures surface as ordinary non-zero exits.
var Signatures = []Signature{
	{
		Dialect:   DialectBuild,
		Phrase:    "mkisofs: Unable to make a DVD-Video image.",
		Result:    NoChange,
		Condition: "dvd_layout_invalid",
		Message:   "Unable to create a DVD image",
	},
	{
		Dialect:   DialectBurn,
		Phrase:    "Data will not fit on any disk",
		Result:    CapacityExceeded,
		Condition: "capacity_exceeded",
		Message:   "The data doesn't fit on the disc",
	},
	{
		Dialect:   DialectBurn,
		Phrase:    "Data may not fit on current disk",
		Result:    CapacityExceeded,
		Condition: "capacity_exceeded",
		Message:   "The data doesn't fit on the disc",
	},
}

// matchLine returns the first per-line fatal signature contained in line.
func matchLine(d Dialect, line string) (Signature, bool) {
	for _, sig := range Signatures {
		if sig.Dialect == d && sig.Result.IsFatal() && strings.Contains(line, sig.Phrase) {
			return sig, true
		}
	}
	return Signature{}, false
}

// ScanFatal searches accumulated output for any failure signature of the
// dialect, including the ones that are only checked after the tool exits.
func ScanFatal(d Dialect, text string) (Signature, bool) {
	for _, sig := range Signatures {
		if sig.Dialect == d && strings.Contains(text, sig.Phrase) {
			return sig, true
		}
	}
	return Signature{}, false
}

// SignatureFor returns the first signature of the dialect producing result.
func SignatureFor(d Dialect, r Result) (Signature, bool) {
	for _, sig := range Signatures {
		if sig.Dialect == d && sig.Result == r {
			return sig, true
		}
	}
	return Signature{}, false
}
