// Package orchestrator drives the disc tools: one slot runs one tool at a
// time, and a session chains slots runs into the build, burn and inspect
// workflows.
package orchestrator

import "github.com/randomizedcoder/go-disc-burn/internal/parser"

// Action is what the slot is currently doing.
type Action int

const (
	// ActionIdle means no run is in flight.
	ActionIdle Action = iota

	// ActionBuilding runs the mastering tool.
	ActionBuilding

	// ActionBurning runs the recording tool.
	ActionBurning

	// ActionInspecting runs the inspection tool.
	ActionInspecting
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionIdle:
		return "idle"
	case ActionBuilding:
		return "building"
	case ActionBurning:
		return "burning"
	case ActionInspecting:
		return "inspecting"
	default:
		return "unknown"
	}
}

// IsActive returns true if the action runs a tool.
func (a Action) IsActive() bool {
	return a == ActionBuilding || a == ActionBurning || a == ActionInspecting
}

// Dialect returns the output dialect of the tool the action runs.
func (a Action) Dialect() parser.Dialect {
	switch a {
	case ActionBuilding:
		return parser.DialectBuild
	case ActionBurning:
		return parser.DialectBurn
	default:
		return parser.DialectInspect
	}
}

// Tool returns the name of the tool the action runs.
func (a Action) Tool() string {
	switch a {
	case ActionBuilding:
		return "mkisofs"
	case ActionBurning:
		return "cdrecord"
	case ActionInspecting:
		return "isoinfo"
	default:
		return ""
	}
}

// status is the line shown while the action is running.
func (a Action) status() string {
	switch a {
	case ActionBuilding:
		return "Building disc image"
	case ActionBurning:
		return "Burning disc"
	case ActionInspecting:
		return "Reading image information"
	default:
		return "Idle"
	}
}
