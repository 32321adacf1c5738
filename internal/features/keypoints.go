// Package features provides keypoint detection and binary descriptor
// extraction for the localization pipeline.
package features

import (
	"fmt"

	"reftrack/pkg/geometry"
)

// DescriptorSize is the length in bytes of one binary descriptor.
const DescriptorSize = 32

// Keypoint is a distinguished image location with scale and orientation,
// stable under moderate viewpoint change. Immutable once produced.
type Keypoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Angle    float64 `json:"angle"`
	Response float64 `json:"response"`
	Octave   int     `json:"octave"`
}

// Point returns the keypoint's sub-pixel location.
func (k Keypoint) Point() geometry.Point2D {
	return geometry.Point2D{X: k.X, Y: k.Y}
}

// Set holds keypoints and their descriptors, index-aligned 1:1. A Set with
// zero keypoints is a valid result for featureless input.
type Set struct {
	Keypoints   []Keypoint
	Descriptors [][]byte
}

// Len returns the number of keypoints in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Keypoints)
}

// Empty returns true if the set has no keypoints.
func (s *Set) Empty() bool {
	return s.Len() == 0
}

// Validate checks the index-alignment invariant and descriptor lengths.
func (s *Set) Validate() error {
	if s == nil {
		return fmt.Errorf("set is nil")
	}
	if len(s.Keypoints) != len(s.Descriptors) {
		return fmt.Errorf("keypoint/descriptor count mismatch: %d vs %d",
			len(s.Keypoints), len(s.Descriptors))
	}
	for i, d := range s.Descriptors {
		if len(d) != DescriptorSize {
			return fmt.Errorf("descriptor %d has length %d, want %d", i, len(d), DescriptorSize)
		}
	}
	return nil
}

// Points returns the locations of all keypoints in index order.
func (s *Set) Points() []geometry.Point2D {
	pts := make([]geometry.Point2D, len(s.Keypoints))
	for i, k := range s.Keypoints {
		pts[i] = k.Point()
	}
	return pts
}
