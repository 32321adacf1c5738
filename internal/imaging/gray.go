package imaging

import "fmt"

// Rec. 601 luma weights, expressed in 1/256ths so the conversion stays in
// integer arithmetic. 77 + 150 + 29 = 256.
const (
	lumaRed   = 77
	lumaGreen = 150
	lumaBlue  = 29
)

// ToGray converts a buffer to single-channel intensity using standard luma
// weighting. A grayscale input is cloned unchanged. The caller owns the
// returned buffer.
func ToGray(src *Buffer) (*Buffer, error) {
	if src == nil || src.Released() {
		return nil, fmt.Errorf("source buffer is not valid")
	}
	if src.Channels() == ChannelsGray {
		return src.Clone(), nil
	}

	dst, err := NewBuffer(src.Width(), src.Height(), ChannelsGray)
	if err != nil {
		return nil, err
	}
	grayInto(src, dst)
	return dst, nil
}

// GrayInto converts src into dst, resizing dst as needed. Used by the
// pipeline to reuse one gray buffer across frames.
func GrayInto(src, dst *Buffer) error {
	if src == nil || src.Released() {
		return fmt.Errorf("source buffer is not valid")
	}
	if dst == nil || dst.Released() {
		return fmt.Errorf("destination buffer is not valid")
	}
	if err := dst.Resize(src.Width(), src.Height(), ChannelsGray); err != nil {
		return err
	}
	if src.Channels() == ChannelsGray {
		copy(dst.pix, src.pix)
		return nil
	}
	grayInto(src, dst)
	return nil
}

func grayInto(src, dst *Buffer) {
	sp := src.pix
	dp := dst.pix
	n := src.width * src.height
	for i := 0; i < n; i++ {
		o := i * 4
		dp[i] = byte((lumaRed*int(sp[o]) + lumaGreen*int(sp[o+1]) + lumaBlue*int(sp[o+2])) >> 8)
	}
}
