package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/randomizedcoder/go-disc-burn/internal/parser"
	"github.com/randomizedcoder/go-disc-burn/internal/process"
)

// OutcomeKind is the final classification of a run.
type OutcomeKind int

const (
	// OutcomeSucceeded is a zero exit with no recognized failure.
	OutcomeSucceeded OutcomeKind = iota

	// OutcomeSpawnFailure means the tool never started.
	OutcomeSpawnFailure

	// OutcomeRecognizedFatal means a known failure phrase was seen, either
	// while streaming or in the transcript after exit.
	OutcomeRecognizedFatal

	// OutcomeFailed is a non-zero exit with no recognized phrase.
	OutcomeFailed
)

// String returns the metric label for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSpawnFailure:
		return "spawn_failure"
	case OutcomeRecognizedFatal:
		return "recognized_fatal"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what the slot reports when a run ends.
type Outcome struct {
	// RunID is unique per run and doubles as the notification ID.
	RunID      string
	Generation Generation
	Action     Action

	ExitCode int
	Kind     OutcomeKind

	// Signature is set when Kind is OutcomeRecognizedFatal.
	Signature *parser.Signature

	// Output is the full display transcript of the run.
	Output string

	// OutputBytes counts every byte read from the tool, including lines
	// that a later progress line replaced in Output.
	OutputBytes int64

	// Lines counts the classified lines by kind.
	Lines parser.ClassifierStats

	Duration time.Duration

	// Err is the spawn or wait error, if any.
	Err error

	// ReadErr is set when the output stream broke mid-run. It does not
	// change Kind.
	ReadErr error
}

// Succeeded reports whether the run completed cleanly.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSucceeded
}

// Message is the one-line result shown to the user.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSucceeded:
		switch o.Action {
		case ActionBuilding:
			return "Image built successfully"
		case ActionBurning:
			return "Disc burned successfully"
		default:
			return "Done"
		}
	case OutcomeSpawnFailure:
		return fmt.Sprintf("Could not start %s: %v", o.Action.Tool(), o.Err)
	case OutcomeRecognizedFatal:
		if o.Signature != nil {
			return o.Signature.Message
		}
		return fmt.Sprintf("%s reported a fatal error", o.Action.Tool())
	default:
		return fmt.Sprintf("%s exited with code %d %s", o.Action.Tool(), o.ExitCode, process.ExitCodeLabel(o.ExitCode))
	}
}

// decideOutcome applies the precedence
// spawn failure > recognized fatal > non-zero exit > success.
func decideOutcome(ev process.Event, d parser.Dialect, abort parser.Result, transcript string) (OutcomeKind, *parser.Signature) {
	if ev.Err != nil && errors.Is(ev.Err, process.ErrSpawn) {
		return OutcomeSpawnFailure, nil
	}

	if abort.IsFatal() {
		if sig, ok := parser.SignatureFor(d, abort); ok {
			return OutcomeRecognizedFatal, &sig
		}
		return OutcomeRecognizedFatal, nil
	}
	if sig, ok := parser.ScanFatal(d, transcript); ok {
		return OutcomeRecognizedFatal, &sig
	}

	if ev.ExitCode != 0 || ev.Err != nil {
		return OutcomeFailed, nil
	}
	return OutcomeSucceeded, nil
}
