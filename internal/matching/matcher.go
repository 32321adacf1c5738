// Package matching provides brute-force matching of binary descriptors
// and selection of the best correspondences.
package matching

import (
	"fmt"
	"math/bits"
)

// Match is a correspondence between a reference descriptor and a frame
// descriptor, with their Hamming distance. Smaller distance is better.
type Match struct {
	ReferenceIndex int `json:"reference_index"`
	FrameIndex     int `json:"frame_index"`
	Distance       int `json:"distance"`
}

// Config contains the parameters for descriptor matching.
type Config struct {
	// CrossCheck keeps a match only when the two descriptors are each
	// other's nearest neighbor in both directions.
	CrossCheck bool `json:"cross_check"`
	// MaxDistance discards matches above this Hamming distance.
	// Zero means no limit.
	MaxDistance int `json:"max_distance"`
}

// DefaultConfig returns the matching configuration used when none is
// supplied.
func DefaultConfig() Config {
	return Config{CrossCheck: true, MaxDistance: 0}
}

// Validate checks that all parameters are in range.
func (c Config) Validate() error {
	if c.MaxDistance < 0 {
		return fmt.Errorf("max_distance must be >= 0, got %d", c.MaxDistance)
	}
	return nil
}

// HammingDistance counts differing bits between two equal-length binary
// descriptors.
func HammingDistance(a, b []byte) int {
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d
}

// nearest returns the index in set closest to desc by Hamming distance,
// along with that distance. Ties resolve to the lowest index so results
// are deterministic. Returns -1 for an empty set.
func nearest(desc []byte, set [][]byte) (int, int) {
	best := -1
	bestDist := 0
	for i, candidate := range set {
		d := HammingDistance(desc, candidate)
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// MatchDescriptors finds, for every reference descriptor, its nearest
// neighbor among the frame descriptors. With cross-checking enabled a
// match survives only if the frame descriptor's own nearest reference
// descriptor is the one that selected it. Empty inputs yield an empty
// result. Complexity is O(|reference| x |frame|).
func MatchDescriptors(reference, frame [][]byte, cfg Config) []Match {
	if len(reference) == 0 || len(frame) == 0 {
		return nil
	}

	// Reverse-direction argmin per frame descriptor, computed once.
	var reverse []int
	if cfg.CrossCheck {
		reverse = make([]int, len(frame))
		for j, fd := range frame {
			reverse[j], _ = nearest(fd, reference)
		}
	}

	matches := make([]Match, 0, len(reference))
	for i, rd := range reference {
		j, dist := nearest(rd, frame)
		if cfg.CrossCheck && reverse[j] != i {
			continue
		}
		if cfg.MaxDistance > 0 && dist > cfg.MaxDistance {
			continue
		}
		matches = append(matches, Match{ReferenceIndex: i, FrameIndex: j, Distance: dist})
	}
	return matches
}
