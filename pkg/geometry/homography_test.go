package geometry

import (
	"math"
	"testing"
)

const tol = 1e-9

func pointsClose(a, b Point2D, eps float64) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestIdentityHomography(t *testing.T) {
	h := IdentityHomography()

	points := []Point2D{
		{X: 0, Y: 0},
		{X: 100, Y: 50},
		{X: -3.5, Y: 7.25},
	}
	for _, p := range points {
		got := h.Apply(p)
		if !pointsClose(got, p, tol) {
			t.Errorf("identity moved %v to %v", p, got)
		}
	}
}

func TestHomographyApplyTranslation(t *testing.T) {
	// Pure translation by (10, -5).
	h := Homography{H00: 1, H02: 10, H11: 1, H12: -5, H22: 1}

	got := h.Apply(Point2D{X: 3, Y: 4})
	want := Point2D{X: 13, Y: -1}
	if !pointsClose(got, want, tol) {
		t.Errorf("translation: got %v, want %v", got, want)
	}
}

func TestHomographyApplyPerspective(t *testing.T) {
	// Projective transform with a non-trivial bottom row.
	h := Homography{H00: 1, H11: 1, H20: 0.001, H22: 1}

	got := h.Apply(Point2D{X: 100, Y: 50})
	// w = 0.001*100 + 1 = 1.1
	want := Point2D{X: 100 / 1.1, Y: 50 / 1.1}
	if !pointsClose(got, want, tol) {
		t.Errorf("perspective: got %v, want %v", got, want)
	}
}

func TestHomographyInverseRoundTrip(t *testing.T) {
	h := Homography{
		H00: 1.2, H01: 0.1, H02: 30,
		H10: -0.05, H11: 0.9, H12: -12,
		H20: 0.0002, H21: -0.0001, H22: 1,
	}

	inv, ok := h.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}

	points := []Point2D{{X: 10, Y: 20}, {X: 300, Y: 150}, {X: 0, Y: 0}}
	for _, p := range points {
		back := inv.Apply(h.Apply(p))
		if !pointsClose(back, p, 1e-6) {
			t.Errorf("round trip moved %v to %v", p, back)
		}
	}
}

func TestHomographyInverseSingular(t *testing.T) {
	// Rank-deficient matrix (second row is a multiple of the first).
	h := Homography{
		H00: 1, H01: 2, H02: 3,
		H10: 2, H11: 4, H12: 6,
		H20: 0, H21: 0, H22: 1,
	}

	if _, ok := h.Inverse(); ok {
		t.Error("expected singular matrix to have no inverse")
	}
}

func TestHomographyCompose(t *testing.T) {
	a := Homography{H00: 2, H11: 2, H22: 1}          // scale by 2
	b := Homography{H00: 1, H02: 5, H11: 1, H12: 7, H22: 1} // translate (5,7)

	// a.Compose(b): translate first, then scale.
	got := a.Compose(b).Apply(Point2D{X: 1, Y: 1})
	want := Point2D{X: 12, Y: 16}
	if !pointsClose(got, want, tol) {
		t.Errorf("compose: got %v, want %v", got, want)
	}
}

func TestHomographyNormalized(t *testing.T) {
	h := Homography{H00: 2, H11: 2, H22: 2}
	n := h.Normalized()
	if n.H22 != 1 || math.Abs(n.H00-1) > tol {
		t.Errorf("normalized: got %+v", n)
	}
}

func TestHomographySliceRoundTrip(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	h := HomographyFromSlice(vals)
	out := h.ToSlice()
	for i := range vals {
		if out[i] != vals[i] {
			t.Fatalf("slice round trip index %d: got %v, want %v", i, out[i], vals[i])
		}
	}
}
