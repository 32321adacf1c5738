package geometry

import "math"

// crossProduct computes the z-component of the cross product of
// vectors (b-a) and (c-a).
func crossProduct(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// IsConvex returns true if the polygon vertices form a convex polygon.
// The polygon is assumed to be simple (non-self-intersecting).
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(
			polygon[i],
			polygon[(i+1)%n],
			polygon[(i+2)%n],
		)

		if cross != 0 {
			currentSign := 1
			if cross < 0 {
				currentSign = -1
			}

			if sign == 0 {
				sign = currentSign
			} else if currentSign != sign {
				return false
			}
		}
	}

	return true
}

// SelfIntersects returns true if any two non-adjacent edges of the polygon
// cross each other. A quadrilateral produced from a bad projective fit can
// fold over itself; callers deciding whether to draw it use this test.
func SelfIntersects(polygon []Point2D) bool {
	n := len(polygon)
	if n < 4 {
		return false
	}

	for i := 0; i < n; i++ {
		a1 := polygon[i]
		a2 := polygon[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges (they share a vertex).
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1 := polygon[j]
			b2 := polygon[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}

	return false
}

// segmentsIntersect returns true if segments p1-p2 and p3-p4 properly intersect.
func segmentsIntersect(p1, p2, p3, p4 Point2D) bool {
	d1 := crossProduct(p3, p4, p1)
	d2 := crossProduct(p3, p4, p2)
	d3 := crossProduct(p1, p2, p3)
	d4 := crossProduct(p1, p2, p4)

	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// Area returns the absolute area of a simple polygon via the shoelace formula.
func Area(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}
