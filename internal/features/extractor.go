package features

import "reftrack/internal/imaging"

// Extractor turns an image buffer into an index-aligned keypoint and
// descriptor set. Implementations keep no references to the input buffer
// and are safe to call repeatedly from a single goroutine.
type Extractor interface {
	// Extract detects keypoints and computes their descriptors. Color
	// input is converted to single-channel intensity first. A featureless
	// image yields an empty set, not an error.
	Extract(buf *imaging.Buffer) (*Set, error)

	// Close releases any native resources held by the extractor.
	Close() error
}
