// Package pipeline orchestrates per-frame localization of a reference
// image inside a video stream: extraction, matching, selection, and
// geometric verification, driven by a cancellable frame scheduler.
package pipeline

import (
	"reftrack/internal/matching"
	"reftrack/pkg/geometry"
)

// State is the lifecycle state of a detection session.
type State int

const (
	// StateIdle is the zero state before the reference is processed.
	StateIdle State = iota
	// StateReady means the reference descriptors have been computed.
	StateReady
	// StateRunning means ticks are being processed.
	StateRunning
	// StateStopped is terminal; a new session is required to run again.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Result is the outcome of one pipeline tick. When Found is false the
// reference was not located this frame: too few keypoints, too few good
// matches, or no solvable homography. None of those are errors.
type Result struct {
	Found bool `json:"found"`

	// Corners is the reference image's four corners projected into frame
	// coordinates, clockwise from the reference's top-left. The
	// quadrilateral is not guaranteed convex or even non-self-intersecting;
	// deciding whether a shape is plausible enough to draw is the
	// renderer's call.
	Corners [4]geometry.Point2D `json:"corners,omitempty"`

	// Matches is the ranked good-match subset that produced the fit.
	Matches []matching.Match `json:"matches,omitempty"`

	// Tick is the sequence number of the tick that produced this result.
	Tick uint64 `json:"tick"`
}

// Stats holds diagnostic counters for a session.
type Stats struct {
	Ticks      uint64 `json:"ticks"`
	Found      uint64 `json:"found"`
	Recovered  uint64 `json:"recovered_faults"`
	LastTickNS int64  `json:"last_tick_ns"`
}
