// Package alignment estimates the projective transform that maps
// reference-image coordinates onto frame coordinates, robust to outlier
// correspondences.
package alignment

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"reftrack/pkg/geometry"
)

// MinCorrespondences is the minimum number of point pairs needed to fit a
// projective transform.
const MinCorrespondences = 4

// Correspondence pairs a reference-image point with its matched frame point.
type Correspondence struct {
	Reference geometry.Point2D `json:"reference"`
	Frame     geometry.Point2D `json:"frame"`
}

// RansacConfig contains the parameters for robust homography fitting.
// The 5-pixel inlier threshold is an empirical carry-over; it is a config
// field rather than a constant so it can be tuned per deployment.
type RansacConfig struct {
	Iterations      int     `json:"iterations"`
	InlierThreshold float64 `json:"inlier_threshold"`
	Seed            int64   `json:"seed"`
}

// DefaultRansacConfig returns the fitting configuration used when none is
// supplied.
func DefaultRansacConfig() RansacConfig {
	return RansacConfig{
		Iterations:      2000,
		InlierThreshold: 5.0,
		Seed:            1,
	}
}

// Validate checks that all parameters are in range.
func (c RansacConfig) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	if c.InlierThreshold <= 0 {
		return fmt.Errorf("inlier_threshold must be > 0, got %g", c.InlierThreshold)
	}
	return nil
}

// EstimateHomography fits a homography to the correspondences using RANSAC:
// sample a minimal 4-pair subset, fit, count inliers within the threshold,
// keep the best model, then refit on its full inlier set with least squares.
// Sampling is driven by the config seed, so identical inputs produce
// identical results.
//
// A nil homography means "no solution": fewer than four correspondences,
// or every sampled subset was degenerate. That is a normal per-frame
// outcome, not an error. The returned indices identify the inliers of the
// final model.
func EstimateHomography(correspondences []Correspondence, cfg RansacConfig) (*geometry.Homography, []int) {
	n := len(correspondences)
	if n < MinCorrespondences {
		return nil, nil
	}

	// With exactly four pairs there is nothing to sample; fit directly.
	if n == MinCorrespondences {
		h, err := fitMinimal(correspondences)
		if err != nil {
			return nil, nil
		}
		return h, []int{0, 1, 2, 3}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var bestInliers []int
	var bestModel *geometry.Homography

	for iter := 0; iter < cfg.Iterations; iter++ {
		idx := rng.Perm(n)[:MinCorrespondences]
		sample := make([]Correspondence, MinCorrespondences)
		for i, k := range idx {
			sample[i] = correspondences[k]
		}
		if sampleDegenerate(sample) {
			continue
		}

		model, err := fitMinimal(sample)
		if err != nil {
			continue
		}

		inliers := countInliers(correspondences, *model, cfg.InlierThreshold)
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
			bestModel = model
		}
	}

	if bestModel == nil || len(bestInliers) < MinCorrespondences {
		return nil, nil
	}

	// Refit on all inliers of the best model. If the refit system is
	// ill-conditioned, the minimal-sample model still stands.
	inlierSet := make([]Correspondence, len(bestInliers))
	for i, k := range bestInliers {
		inlierSet[i] = correspondences[k]
	}
	if refit, err := FitHomography(inlierSet); err == nil {
		bestModel = refit
		bestInliers = countInliers(correspondences, *refit, cfg.InlierThreshold)
	}

	return bestModel, bestInliers
}

// countInliers returns the indices of correspondences whose reference
// point, transformed by h, lands within threshold pixels of its frame point.
func countInliers(correspondences []Correspondence, h geometry.Homography, threshold float64) []int {
	var inliers []int
	for i, c := range correspondences {
		projected := h.Apply(c.Reference)
		if projected.Distance(c.Frame) < threshold {
			inliers = append(inliers, i)
		}
	}
	return inliers
}

// sampleDegenerate reports whether any three of the four reference points
// are (nearly) collinear, which makes the minimal system unsolvable.
func sampleDegenerate(sample []Correspondence) bool {
	pts := make([]geometry.Point2D, len(sample))
	for i, c := range sample {
		pts[i] = c.Reference
	}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				a, b, c := pts[i], pts[j], pts[k]
				area := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
				if area > -1e-6 && area < 1e-6 {
					return true
				}
			}
		}
	}
	return false
}

// fitMinimal solves the exact 8x8 linear system for four correspondences,
// fixing h22 = 1.
func fitMinimal(sample []Correspondence) (*geometry.Homography, error) {
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)
	for i, c := range sample {
		fillDLTRows(A, B, i, c)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return nil, fmt.Errorf("singular minimal system: %w", err)
	}
	return homographyFromParams(&params), nil
}

// FitHomography computes a least-squares homography over all
// correspondences, with no outlier rejection. It is the non-robust fit:
// a single bad correspondence can corrupt the result. Requires at least
// four pairs.
func FitHomography(correspondences []Correspondence) (*geometry.Homography, error) {
	n := len(correspondences)
	if n < MinCorrespondences {
		return nil, fmt.Errorf("need at least %d correspondences, got %d", MinCorrespondences, n)
	}

	A := mat.NewDense(n*2, 8, nil)
	B := mat.NewVecDense(n*2, nil)
	for i, c := range correspondences {
		fillDLTRows(A, B, i, c)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return nil, fmt.Errorf("ill-conditioned system: %w", err)
	}
	return homographyFromParams(&params), nil
}

// fillDLTRows writes the two direct-linear-transform equations for one
// correspondence into rows 2i and 2i+1:
//
//	x' = (h00 X + h01 Y + h02) / (h20 X + h21 Y + 1)
//	y' = (h10 X + h11 Y + h12) / (h20 X + h21 Y + 1)
func fillDLTRows(A *mat.Dense, B *mat.VecDense, i int, c Correspondence) {
	X, Y := c.Reference.X, c.Reference.Y
	x, y := c.Frame.X, c.Frame.Y
	r := 2 * i

	A.Set(r, 0, X)
	A.Set(r, 1, Y)
	A.Set(r, 2, 1)
	A.Set(r, 6, -X*x)
	A.Set(r, 7, -Y*x)
	B.SetVec(r, x)

	A.Set(r+1, 3, X)
	A.Set(r+1, 4, Y)
	A.Set(r+1, 5, 1)
	A.Set(r+1, 6, -X*y)
	A.Set(r+1, 7, -Y*y)
	B.SetVec(r+1, y)
}

func homographyFromParams(params *mat.VecDense) *geometry.Homography {
	return &geometry.Homography{
		H00: params.AtVec(0), H01: params.AtVec(1), H02: params.AtVec(2),
		H10: params.AtVec(3), H11: params.AtVec(4), H12: params.AtVec(5),
		H20: params.AtVec(6), H21: params.AtVec(7), H22: 1,
	}
}
