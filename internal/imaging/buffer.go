// Package imaging provides the pixel buffer type shared by the detection
// pipeline and helpers for converting and loading image data.
package imaging

import (
	"fmt"
	"sync/atomic"
)

// Supported channel depths.
const (
	ChannelsGray = 1
	ChannelsRGBA = 4
)

// liveBuffers counts buffers that have been allocated but not yet released.
// Tests use it to assert that a stopped session leaks nothing.
var liveBuffers int64

// LiveBuffers returns the number of currently allocated buffers.
func LiveBuffers() int64 {
	return atomic.LoadInt64(&liveBuffers)
}

// Buffer is a 2D pixel grid with an explicit channel depth. A Buffer is
// owned by exactly one stage at a time; the owner calls Release when done.
// The pixel data must not be mutated by anyone but the owner.
type Buffer struct {
	width    int
	height   int
	channels int
	pix      []byte
	released bool
}

// NewBuffer allocates a zeroed buffer. Width and height may be zero
// (a zero-area buffer is valid and reports ZeroArea).
func NewBuffer(width, height, channels int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid buffer dimensions: %dx%d", width, height)
	}
	if channels != ChannelsGray && channels != ChannelsRGBA {
		return nil, fmt.Errorf("unsupported channel depth: %d", channels)
	}
	atomic.AddInt64(&liveBuffers, 1)
	return &Buffer{
		width:    width,
		height:   height,
		channels: channels,
		pix:      make([]byte, width*height*channels),
	}, nil
}

// NewBufferFromPix allocates a buffer holding a copy of pix.
func NewBufferFromPix(pix []byte, width, height, channels int) (*Buffer, error) {
	b, err := NewBuffer(width, height, channels)
	if err != nil {
		return nil, err
	}
	if len(pix) != len(b.pix) {
		b.Release()
		return nil, fmt.Errorf("pixel data length %d does not match %dx%dx%d",
			len(pix), width, height, channels)
	}
	copy(b.pix, pix)
	return b, nil
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Channels returns the channel depth (1 or 4).
func (b *Buffer) Channels() int { return b.channels }

// ZeroArea returns true if the buffer has no pixels.
func (b *Buffer) ZeroArea() bool {
	return b == nil || b.width == 0 || b.height == 0
}

// Pix returns the raw pixel data in row-major order. The slice aliases the
// buffer's storage; callers must not retain it past the buffer's lifetime.
func (b *Buffer) Pix() []byte { return b.pix }

// At returns the value of channel c at pixel (x, y).
func (b *Buffer) At(x, y, c int) byte {
	return b.pix[(y*b.width+x)*b.channels+c]
}

// Set assigns the value of channel c at pixel (x, y).
func (b *Buffer) Set(x, y, c int, v byte) {
	b.pix[(y*b.width+x)*b.channels+c] = v
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out, _ := NewBufferFromPix(b.pix, b.width, b.height, b.channels)
	return out
}

// Resize reallocates the buffer's storage for new dimensions. Storage is
// reused when the byte size is unchanged. Existing contents are discarded.
func (b *Buffer) Resize(width, height, channels int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("invalid buffer dimensions: %dx%d", width, height)
	}
	if channels != ChannelsGray && channels != ChannelsRGBA {
		return fmt.Errorf("unsupported channel depth: %d", channels)
	}
	need := width * height * channels
	if need != len(b.pix) {
		b.pix = make([]byte, need)
	}
	b.width = width
	b.height = height
	b.channels = channels
	return nil
}

// Release frees the buffer's storage and decrements the live-buffer count.
// Release is idempotent; using a buffer after Release is a caller bug.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.pix = nil
	b.width = 0
	b.height = 0
	atomic.AddInt64(&liveBuffers, -1)
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b != nil && b.released
}
