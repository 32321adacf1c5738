package imaging

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// FromImage converts a decoded image into a 4-channel buffer. The pixel
// format is normalized to non-premultiplied RGBA regardless of the source
// color model. The caller owns the returned buffer.
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", w, h)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, xdraw.Src)

	return NewBufferFromPix(nrgba.Pix, w, h, ChannelsRGBA)
}

// ToImage converts a buffer back into a standard library image, for
// callers that want to encode or annotate it. The buffer remains owned by
// the caller; pixel data is copied.
func ToImage(b *Buffer) (image.Image, error) {
	if b == nil || b.Released() {
		return nil, fmt.Errorf("buffer is not valid")
	}
	switch b.Channels() {
	case ChannelsGray:
		out := image.NewGray(image.Rect(0, 0, b.Width(), b.Height()))
		copy(out.Pix, b.Pix())
		return out, nil
	case ChannelsRGBA:
		out := image.NewNRGBA(image.Rect(0, 0, b.Width(), b.Height()))
		copy(out.Pix, b.Pix())
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported channel depth: %d", b.Channels())
	}
}
