package main

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"reftrack/internal/pipeline"
)

var outlineColor = color.NRGBA{R: 0, G: 230, B: 118, A: 255}

// writeVisualization renders the match annotations onto a side-by-side
// canvas (reference left, frame right) and saves it. When the detection
// succeeded the projected reference outline is drawn on the frame panel.
func writeVisualization(path string, refImg, frameImg image.Image,
	viz *pipeline.Visualization, result pipeline.Result,
) error {
	refW := refImg.Bounds().Dx()
	width := refW + frameImg.Bounds().Dx()
	height := refImg.Bounds().Dy()
	if h := frameImg.Bounds().Dy(); h > height {
		height = h
	}

	canvas := imaging.New(width, height, color.NRGBA{R: 24, G: 24, B: 24, A: 255})
	canvas = imaging.Paste(canvas, refImg, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, frameImg, image.Pt(refW, 0))

	if viz != nil {
		// Muted tail first so emphasized lines stay on top.
		for _, p := range viz.Pairs {
			if !p.Emphasis {
				drawPair(canvas, p)
			}
		}
		for _, p := range viz.Pairs {
			if p.Emphasis {
				drawPair(canvas, p)
			}
		}
	}

	if result.Found {
		for i := range result.Corners {
			a := result.Corners[i]
			b := result.Corners[(i+1)%len(result.Corners)]
			drawLine(canvas,
				refW+int(a.X+0.5), int(a.Y+0.5),
				refW+int(b.X+0.5), int(b.Y+0.5),
				outlineColor)
		}
	}

	return imaging.Save(canvas, path)
}

func drawPair(canvas *image.NRGBA, p pipeline.VizPair) {
	col := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if c, err := colorful.Hex(p.Color); err == nil {
		r, g, b := c.RGB255()
		col = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	drawLine(canvas,
		int(p.Reference.X+0.5), int(p.Reference.Y+0.5),
		int(p.Canvas.X+0.5), int(p.Canvas.Y+0.5),
		col)
	drawMarker(canvas, int(p.Reference.X+0.5), int(p.Reference.Y+0.5), col)
	drawMarker(canvas, int(p.Canvas.X+0.5), int(p.Canvas.Y+0.5), col)
}

// drawLine draws a 1px Bresenham line clipped to the canvas bounds.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, col color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setPixel(img, x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawMarker(img *image.NRGBA, x, y int, col color.NRGBA) {
	for d := -2; d <= 2; d++ {
		setPixel(img, x+d, y, col)
		setPixel(img, x, y+d, col)
	}
}

func setPixel(img *image.NRGBA, x, y int, col color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, col)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
