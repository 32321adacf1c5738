package features

import (
	"fmt"

	"gocv.io/x/gocv"

	"reftrack/internal/imaging"
)

// Config contains the parameters for the ORB keypoint extractor.
type Config struct {
	MaxFeatures   int     `json:"max_features"`
	ScaleFactor   float64 `json:"scale_factor"`
	Levels        int     `json:"n_levels"`
	EdgeThreshold int     `json:"edge_threshold"`
	PatchSize     int     `json:"patch_size"`
	FastThreshold int     `json:"fast_threshold"`
}

// DefaultConfig returns the extractor configuration used when none is
// supplied. The feature cap keeps per-frame matching in the hundreds of
// descriptors, which the brute-force matcher is sized for.
func DefaultConfig() Config {
	return Config{
		MaxFeatures:   500,
		ScaleFactor:   1.2,
		Levels:        8,
		EdgeThreshold: 31,
		PatchSize:     31,
		FastThreshold: 20,
	}
}

// Validate checks that all parameters are in range.
func (c Config) Validate() error {
	if c.MaxFeatures < 1 {
		return fmt.Errorf("max_features must be >= 1, got %d", c.MaxFeatures)
	}
	if c.ScaleFactor <= 1.0 {
		return fmt.Errorf("scale_factor must be > 1.0, got %g", c.ScaleFactor)
	}
	if c.Levels < 1 {
		return fmt.Errorf("n_levels must be >= 1, got %d", c.Levels)
	}
	if c.EdgeThreshold < 0 {
		return fmt.Errorf("edge_threshold must be >= 0, got %d", c.EdgeThreshold)
	}
	if c.PatchSize < 2 {
		return fmt.Errorf("patch_size must be >= 2, got %d", c.PatchSize)
	}
	if c.FastThreshold < 1 {
		return fmt.Errorf("fast_threshold must be >= 1, got %d", c.FastThreshold)
	}
	return nil
}

// ORBExtractor computes oriented binary descriptors using OpenCV's ORB
// detector. One extractor is constructed per detection session and must be
// closed when the session ends.
type ORBExtractor struct {
	cfg  Config
	orb  gocv.ORB
	gray *imaging.Buffer // reused across frames to avoid allocation churn
}

// NewORBExtractor creates an extractor with the given configuration.
func NewORBExtractor(cfg Config) (*ORBExtractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor config: %w", err)
	}
	gray, err := imaging.NewBuffer(0, 0, imaging.ChannelsGray)
	if err != nil {
		return nil, err
	}
	orb := gocv.NewORBWithParams(
		cfg.MaxFeatures,
		float32(cfg.ScaleFactor),
		cfg.Levels,
		cfg.EdgeThreshold,
		0, // first level
		2, // WTA_K
		gocv.ORBScoreTypeHarris,
		cfg.PatchSize,
		cfg.FastThreshold,
	)
	return &ORBExtractor{cfg: cfg, orb: orb, gray: gray}, nil
}

// Config returns the configuration the extractor was built with.
func (e *ORBExtractor) Config() Config {
	return e.cfg
}

// Extract implements Extractor. The input buffer is converted to grayscale
// first; the buffer itself is left untouched and no reference to it is kept.
func (e *ORBExtractor) Extract(buf *imaging.Buffer) (*Set, error) {
	if buf == nil || buf.Released() {
		return nil, fmt.Errorf("input buffer is not valid")
	}
	if buf.ZeroArea() {
		return nil, fmt.Errorf("input buffer has zero area")
	}

	if err := imaging.GrayInto(buf, e.gray); err != nil {
		return nil, fmt.Errorf("grayscale conversion: %w", err)
	}
	gray := e.gray

	mat, err := gocv.NewMatFromBytes(gray.Height(), gray.Width(), gocv.MatTypeCV8U, gray.Pix())
	if err != nil {
		return nil, fmt.Errorf("wrapping gray buffer: %w", err)
	}
	defer mat.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	kps, desc := e.orb.DetectAndCompute(mat, mask)
	defer desc.Close()

	set := &Set{
		Keypoints:   make([]Keypoint, 0, len(kps)),
		Descriptors: make([][]byte, 0, len(kps)),
	}
	if len(kps) == 0 || desc.Empty() {
		return set, nil
	}
	if desc.Cols() != DescriptorSize {
		return nil, fmt.Errorf("unexpected descriptor width: %d", desc.Cols())
	}
	if desc.Rows() != len(kps) {
		return nil, fmt.Errorf("descriptor/keypoint count mismatch: %d vs %d", desc.Rows(), len(kps))
	}

	raw := desc.ToBytes()
	for i, kp := range kps {
		row := make([]byte, DescriptorSize)
		copy(row, raw[i*DescriptorSize:(i+1)*DescriptorSize])
		set.Keypoints = append(set.Keypoints, Keypoint{
			X:        kp.X,
			Y:        kp.Y,
			Size:     kp.Size,
			Angle:    kp.Angle,
			Response: kp.Response,
			Octave:   kp.Octave,
		})
		set.Descriptors = append(set.Descriptors, row)
	}

	return set, nil
}

// Close releases the underlying ORB detector and the reusable gray buffer.
func (e *ORBExtractor) Close() error {
	e.gray.Release()
	return e.orb.Close()
}
