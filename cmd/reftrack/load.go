package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"

	"reftrack/internal/imaging"
)

// loadImage decodes an image file and returns both the decoded image and an
// RGBA pixel buffer for the pipeline. The caller owns the buffer.
func loadImage(path string) (image.Image, *imaging.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	log.WithFields(map[string]interface{}{
		"path":   path,
		"format": format,
	}).Debug("image loaded")

	buf, err := imaging.FromImage(img)
	if err != nil {
		return nil, nil, fmt.Errorf("converting %s: %w", path, err)
	}
	return img, buf, nil
}

// staticSource serves the same frame on every tick.
type staticSource struct {
	frame *imaging.Buffer
}

func (s *staticSource) Frame(dst *imaging.Buffer) error {
	if err := dst.Resize(s.frame.Width(), s.frame.Height(), imaging.ChannelsRGBA); err != nil {
		return err
	}
	copy(dst.Pix(), s.frame.Pix())
	return nil
}
