package matching

import (
	"fmt"
	"math"
	"sort"
)

// SelectorConfig controls how many ranked matches survive selection.
// The defaults (keep half, floor of ten) are empirical carry-overs with no
// derivation behind them; treat them as tuning knobs, not truths.
type SelectorConfig struct {
	// KeepFraction keeps the best fraction of all matches.
	KeepFraction float64 `json:"keep_fraction"`
	// MinKeep is a floor that prevents starving the geometry stage on
	// noisy frames with few matches.
	MinKeep int `json:"min_keep"`
}

// DefaultSelectorConfig returns the selection configuration used when none
// is supplied.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{KeepFraction: 0.5, MinKeep: 10}
}

// Validate checks that all parameters are in range.
func (c SelectorConfig) Validate() error {
	if c.KeepFraction <= 0 || c.KeepFraction > 1 {
		return fmt.Errorf("keep_fraction must be in (0, 1], got %g", c.KeepFraction)
	}
	if c.MinKeep < 0 {
		return fmt.Errorf("min_keep must be >= 0, got %d", c.MinKeep)
	}
	return nil
}

// SelectGood ranks matches ascending by distance and truncates to
// max(floor(KeepFraction*n), min(n, MinKeep)) entries. The sort is stable,
// so ties keep their original order and the function is deterministic.
// The input slice is not modified; an empty input returns an empty result,
// which callers must treat as "insufficient for geometry".
func SelectGood(matches []Match, cfg SelectorConfig) []Match {
	n := len(matches)
	if n == 0 {
		return nil
	}

	ranked := make([]Match, n)
	copy(ranked, matches)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})

	count := int(math.Floor(cfg.KeepFraction * float64(n)))
	if floor := min(n, cfg.MinKeep); floor > count {
		count = floor
	}
	return ranked[:count]
}
