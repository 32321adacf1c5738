package geometry

import "math"

// Homography represents a 3x3 projective transformation matrix
// mapping one plane's coordinates onto another's.
// [h00 h01 h02]
// [h10 h11 h12]
// [h20 h21 h22]
type Homography struct {
	H00, H01, H02 float64
	H10, H11, H12 float64
	H20, H21, H22 float64
}

// IdentityHomography returns the identity transform.
func IdentityHomography() Homography {
	return Homography{H00: 1, H11: 1, H22: 1}
}

// HomographyFromSlice creates a Homography from a row-major slice of 9 values.
func HomographyFromSlice(m []float64) Homography {
	return Homography{
		H00: m[0], H01: m[1], H02: m[2],
		H10: m[3], H11: m[4], H12: m[5],
		H20: m[6], H21: m[7], H22: m[8],
	}
}

// ToSlice returns the matrix as a row-major slice of 9 values.
func (h Homography) ToSlice() []float64 {
	return []float64{
		h.H00, h.H01, h.H02,
		h.H10, h.H11, h.H12,
		h.H20, h.H21, h.H22,
	}
}

// Apply applies the projective transform to a point. Points that map to
// the line at infinity (w near zero) are clamped to a large coordinate
// rather than producing Inf/NaN.
func (h Homography) Apply(p Point2D) Point2D {
	w := h.H20*p.X + h.H21*p.Y + h.H22
	if math.Abs(w) < 1e-12 {
		w = math.Copysign(1e-12, w)
	}
	return Point2D{
		X: (h.H00*p.X + h.H01*p.Y + h.H02) / w,
		Y: (h.H10*p.X + h.H11*p.Y + h.H12) / w,
	}
}

// ApplyAll applies the transform to each point in a slice.
func (h Homography) ApplyAll(points []Point2D) []Point2D {
	out := make([]Point2D, len(points))
	for i, p := range points {
		out[i] = h.Apply(p)
	}
	return out
}

// Det returns the determinant of the matrix.
func (h Homography) Det() float64 {
	return h.H00*(h.H11*h.H22-h.H12*h.H21) -
		h.H01*(h.H10*h.H22-h.H12*h.H20) +
		h.H02*(h.H10*h.H21-h.H11*h.H20)
}

// Inverse returns the inverse transform, if it exists.
func (h Homography) Inverse() (Homography, bool) {
	det := h.Det()
	if math.Abs(det) < 1e-12 {
		return Homography{}, false
	}
	invDet := 1.0 / det
	return Homography{
		H00: (h.H11*h.H22 - h.H12*h.H21) * invDet,
		H01: (h.H02*h.H21 - h.H01*h.H22) * invDet,
		H02: (h.H01*h.H12 - h.H02*h.H11) * invDet,
		H10: (h.H12*h.H20 - h.H10*h.H22) * invDet,
		H11: (h.H00*h.H22 - h.H02*h.H20) * invDet,
		H12: (h.H02*h.H10 - h.H00*h.H12) * invDet,
		H20: (h.H10*h.H21 - h.H11*h.H20) * invDet,
		H21: (h.H01*h.H20 - h.H00*h.H21) * invDet,
		H22: (h.H00*h.H11 - h.H01*h.H10) * invDet,
	}, true
}

// Compose returns this transform composed with another (this * other),
// i.e. other is applied first.
func (h Homography) Compose(other Homography) Homography {
	return Homography{
		H00: h.H00*other.H00 + h.H01*other.H10 + h.H02*other.H20,
		H01: h.H00*other.H01 + h.H01*other.H11 + h.H02*other.H21,
		H02: h.H00*other.H02 + h.H01*other.H12 + h.H02*other.H22,
		H10: h.H10*other.H00 + h.H11*other.H10 + h.H12*other.H20,
		H11: h.H10*other.H01 + h.H11*other.H11 + h.H12*other.H21,
		H12: h.H10*other.H02 + h.H11*other.H12 + h.H12*other.H22,
		H20: h.H20*other.H00 + h.H21*other.H10 + h.H22*other.H20,
		H21: h.H20*other.H01 + h.H21*other.H11 + h.H22*other.H21,
		H22: h.H20*other.H02 + h.H21*other.H12 + h.H22*other.H22,
	}
}

// Normalized returns the matrix scaled so that H22 == 1. Returns the
// matrix unchanged if H22 is near zero.
func (h Homography) Normalized() Homography {
	if math.Abs(h.H22) < 1e-12 {
		return h
	}
	s := 1.0 / h.H22
	return Homography{
		H00: h.H00 * s, H01: h.H01 * s, H02: h.H02 * s,
		H10: h.H10 * s, H11: h.H11 * s, H12: h.H12 * s,
		H20: h.H20 * s, H21: h.H21 * s, H22: 1,
	}
}
