package pipeline

import (
	"github.com/lucasb-eyer/go-colorful"

	"reftrack/internal/features"
	"reftrack/internal/matching"
	"reftrack/pkg/geometry"
)

// VizPair is one annotated correspondence in the side-by-side match
// visualization. Reference and Frame are in their own image coordinates;
// Canvas is the frame endpoint shifted right by the reference width, for
// renderers that paste the two images next to each other.
type VizPair struct {
	Reference geometry.Point2D `json:"reference"`
	Frame     geometry.Point2D `json:"frame"`
	Canvas    geometry.Point2D `json:"canvas"`
	Distance  int              `json:"distance"`
	Rank      int              `json:"rank"`
	Emphasis  bool             `json:"emphasis"`
	Color     string           `json:"color"` // #rrggbb
}

// Visualization is the structured side-by-side diagnostic record emitted
// alongside a Found result. The core never draws; this is annotation data
// for an external renderer.
type Visualization struct {
	ReferenceSize geometry.Size `json:"reference_size"`
	FrameSize     geometry.Size `json:"frame_size"`
	Pairs         []VizPair     `json:"pairs"`
}

// BuildVisualization annotates ranked matches with canvas positions and a
// rank-based color ramp. The first emphasizeTop ranks are flagged for
// emphasized rendering; the remainder get a muted color.
func BuildVisualization(reference, frame *features.Set, ranked []matching.Match,
	refSize, frameSize geometry.Size, emphasizeTop int,
) *Visualization {
	viz := &Visualization{
		ReferenceSize: refSize,
		FrameSize:     frameSize,
		Pairs:         make([]VizPair, 0, len(ranked)),
	}

	for rank, m := range ranked {
		refPt := reference.Keypoints[m.ReferenceIndex].Point()
		framePt := frame.Keypoints[m.FrameIndex].Point()
		emphasized := rank < emphasizeTop

		viz.Pairs = append(viz.Pairs, VizPair{
			Reference: refPt,
			Frame:     framePt,
			Canvas:    geometry.Point2D{X: framePt.X + refSize.Width, Y: framePt.Y},
			Distance:  m.Distance,
			Rank:      rank,
			Emphasis:  emphasized,
			Color:     rankColor(rank, len(ranked), emphasized),
		})
	}
	return viz
}

// rankColor maps a match rank onto a green-to-red hue ramp. Emphasized
// ranks are fully saturated; the long tail is washed out so it reads as
// background detail.
func rankColor(rank, total int, emphasized bool) string {
	if total <= 1 {
		total = 2
	}
	hue := 120.0 * (1.0 - float64(rank)/float64(total-1)) // 120=green .. 0=red
	sat, val := 1.0, 0.9
	if !emphasized {
		sat, val = 0.35, 0.75
	}
	return colorful.Hsv(hue, sat, val).Hex()
}
