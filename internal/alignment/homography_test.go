package alignment

import (
	"math"
	"testing"

	"reftrack/pkg/geometry"
)

// project builds correspondences by mapping reference points through h.
func project(refs []geometry.Point2D, h geometry.Homography) []Correspondence {
	out := make([]Correspondence, len(refs))
	for i, p := range refs {
		out[i] = Correspondence{Reference: p, Frame: h.Apply(p)}
	}
	return out
}

// spreadPoints returns well-conditioned (non-collinear) reference points.
func spreadPoints() []geometry.Point2D {
	return []geometry.Point2D{
		{X: 10, Y: 10}, {X: 300, Y: 20}, {X: 280, Y: 210}, {X: 30, Y: 190},
		{X: 150, Y: 40}, {X: 60, Y: 120}, {X: 240, Y: 150}, {X: 170, Y: 200},
		{X: 90, Y: 60}, {X: 210, Y: 80}, {X: 120, Y: 160}, {X: 260, Y: 50},
	}
}

func maxProjectionError(h geometry.Homography, want geometry.Homography, pts []geometry.Point2D) float64 {
	var worst float64
	for _, p := range pts {
		d := h.Apply(p).Distance(want.Apply(p))
		if d > worst {
			worst = d
		}
	}
	return worst
}

func TestEstimateHomographyTooFewCorrespondences(t *testing.T) {
	cfg := DefaultRansacConfig()
	refs := spreadPoints()

	for n := 0; n < MinCorrespondences; n++ {
		corr := project(refs[:n], geometry.IdentityHomography())
		if h, _ := EstimateHomography(corr, cfg); h != nil {
			t.Errorf("n=%d: expected nil homography", n)
		}
	}
}

func TestEstimateHomographyIdentity(t *testing.T) {
	corr := project(spreadPoints()[:4], geometry.IdentityHomography())

	h, inliers := EstimateHomography(corr, DefaultRansacConfig())
	if h == nil {
		t.Fatal("expected a solution")
	}
	if len(inliers) != 4 {
		t.Errorf("inliers = %v, want all 4", inliers)
	}
	if err := maxProjectionError(*h, geometry.IdentityHomography(), spreadPoints()); err > 1e-6 {
		t.Errorf("identity recovery error = %g", err)
	}
}

func TestEstimateHomographyRecoversKnownTransform(t *testing.T) {
	want := geometry.Homography{
		H00: 0.9, H01: 0.1, H02: 25,
		H10: -0.08, H11: 1.1, H12: -14,
		H20: 0.0003, H21: -0.0002, H22: 1,
	}
	corr := project(spreadPoints(), want)

	h, inliers := EstimateHomography(corr, DefaultRansacConfig())
	if h == nil {
		t.Fatal("expected a solution")
	}
	if len(inliers) != len(corr) {
		t.Errorf("inliers = %d, want %d", len(inliers), len(corr))
	}
	if err := maxProjectionError(*h, want, spreadPoints()); err > 1e-4 {
		t.Errorf("recovery error = %g", err)
	}
}

func TestEstimateHomographyCollinear(t *testing.T) {
	// All points on one line: every minimal sample is degenerate.
	var corr []Correspondence
	for i := 0; i < 8; i++ {
		p := geometry.Point2D{X: float64(i * 10), Y: float64(i * 20)}
		corr = append(corr, Correspondence{Reference: p, Frame: p})
	}

	if h, _ := EstimateHomography(corr, DefaultRansacConfig()); h != nil {
		t.Error("expected nil homography for collinear correspondences")
	}
}

func TestEstimateHomographyRejectsOutliers(t *testing.T) {
	want := geometry.Homography{
		H00: 1.05, H01: -0.02, H02: 12,
		H10: 0.03, H11: 0.98, H12: -7,
		H20: 0.0001, H21: 0.0001, H22: 1,
	}
	corr := project(spreadPoints(), want)

	// Corrupt two correspondences into gross geometric outliers.
	corr[2].Frame = geometry.Point2D{X: 900, Y: -400}
	corr[7].Frame = geometry.Point2D{X: -250, Y: 777}

	h, inliers := EstimateHomography(corr, DefaultRansacConfig())
	if h == nil {
		t.Fatal("expected a solution despite outliers")
	}
	if len(inliers) != len(corr)-2 {
		t.Errorf("inliers = %d, want %d", len(inliers), len(corr)-2)
	}
	if err := maxProjectionError(*h, want, spreadPoints()); err > 1e-4 {
		t.Errorf("robust recovery error = %g", err)
	}

	// The non-robust fit over the same corrupted set must be visibly worse.
	direct, err := FitHomography(corr)
	if err != nil {
		t.Fatalf("least-squares fit failed: %v", err)
	}
	if degraded := maxProjectionError(*direct, want, spreadPoints()); degraded < 1.0 {
		t.Errorf("expected non-robust fit to degrade, error = %g", degraded)
	}
}

func TestEstimateHomographyDeterministicForSeed(t *testing.T) {
	want := geometry.Homography{H00: 1, H02: 40, H11: 1, H12: -9, H22: 1}
	corr := project(spreadPoints(), want)
	corr[5].Frame = geometry.Point2D{X: 1234, Y: 1234}

	cfg := DefaultRansacConfig()
	first, _ := EstimateHomography(corr, cfg)
	second, _ := EstimateHomography(corr, cfg)
	if first == nil || second == nil {
		t.Fatal("expected solutions")
	}

	a, b := first.ToSlice(), second.ToSlice()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("runs differ at element %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFitHomographyExactPoints(t *testing.T) {
	want := geometry.Homography{H00: 2, H11: 2, H02: 5, H12: 5, H22: 1}
	corr := project(spreadPoints()[:6], want)

	h, err := FitHomography(corr)
	if err != nil {
		t.Fatal(err)
	}
	if errMax := maxProjectionError(*h, want, spreadPoints()); errMax > 1e-6 {
		t.Errorf("exact fit error = %g", errMax)
	}

	if _, err := FitHomography(corr[:3]); err == nil {
		t.Error("expected error for fewer than 4 correspondences")
	}
}

func TestRansacConfigValidate(t *testing.T) {
	if err := DefaultRansacConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if err := (RansacConfig{Iterations: 0, InlierThreshold: 5}).Validate(); err == nil {
		t.Error("expected error for zero iterations")
	}
	if err := (RansacConfig{Iterations: 100, InlierThreshold: 0}).Validate(); err == nil {
		t.Error("expected error for zero threshold")
	}
	if math.IsNaN(DefaultRansacConfig().InlierThreshold) {
		t.Error("default threshold is NaN")
	}
}
