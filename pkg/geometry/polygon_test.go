package geometry

import "testing"

func TestIsConvex(t *testing.T) {
	tests := []struct {
		name    string
		polygon []Point2D
		want    bool
	}{
		{
			name: "square",
			polygon: []Point2D{
				{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
			},
			want: true,
		},
		{
			name: "concave arrow",
			polygon: []Point2D{
				{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 3}, {X: 5, Y: 10},
			},
			want: false,
		},
		{
			name:    "too few points",
			polygon: []Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConvex(tt.polygon); got != tt.want {
				t.Errorf("IsConvex = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelfIntersects(t *testing.T) {
	tests := []struct {
		name    string
		polygon []Point2D
		want    bool
	}{
		{
			name: "simple square",
			polygon: []Point2D{
				{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
			},
			want: false,
		},
		{
			name: "bowtie",
			polygon: []Point2D{
				{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
			},
			want: true,
		},
		{
			name:    "triangle",
			polygon: []Point2D{{X: 0, Y: 0}, {X: 5, Y: 8}, {X: 10, Y: 0}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelfIntersects(tt.polygon); got != tt.want {
				t.Errorf("SelfIntersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point2D{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}

	if !PointInPolygon(Point2D{X: 5, Y: 5}, square) {
		t.Error("center should be inside")
	}
	if PointInPolygon(Point2D{X: 15, Y: 5}, square) {
		t.Error("point to the right should be outside")
	}
}

func TestArea(t *testing.T) {
	square := []Point2D{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}
	if got := Area(square); got != 100 {
		t.Errorf("square area = %v, want 100", got)
	}
	if got := Area(square[:2]); got != 0 {
		t.Errorf("degenerate area = %v, want 0", got)
	}
}

func TestBoundingBoxAndCentroid(t *testing.T) {
	points := []Point2D{{X: 1, Y: 2}, {X: 5, Y: -2}, {X: 3, Y: 6}}

	box := BoundingBox(points)
	if box.X != 1 || box.Y != -2 || box.Width != 4 || box.Height != 8 {
		t.Errorf("bounding box = %+v", box)
	}

	c := Centroid(points)
	if c.X != 3 || c.Y != 2 {
		t.Errorf("centroid = %+v", c)
	}
}
