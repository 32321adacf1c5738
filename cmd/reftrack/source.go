package main

import (
	"fmt"

	"gocv.io/x/gocv"

	"reftrack/internal/imaging"
)

// captureSource adapts a gocv capture device to the pipeline frame contract.
// A failed read is end-of-stream for files and a transient dropout for live
// devices, where it yields a zero-area frame so the tick is skipped.
type captureSource struct {
	cap  *gocv.VideoCapture
	bgr  gocv.Mat
	rgba gocv.Mat

	endOnFail bool
	ended     bool
}

func newCaptureSource(cap *gocv.VideoCapture, endOnFail bool) *captureSource {
	return &captureSource{
		cap:       cap,
		bgr:       gocv.NewMat(),
		rgba:      gocv.NewMat(),
		endOnFail: endOnFail,
	}
}

func (s *captureSource) Frame(dst *imaging.Buffer) error {
	if !s.cap.Read(&s.bgr) || s.bgr.Empty() {
		if s.endOnFail {
			s.ended = true
			return fmt.Errorf("no more frames")
		}
		return dst.Resize(0, 0, imaging.ChannelsRGBA)
	}
	gocv.CvtColor(s.bgr, &s.rgba, gocv.ColorBGRToRGBA)
	if err := dst.Resize(s.rgba.Cols(), s.rgba.Rows(), imaging.ChannelsRGBA); err != nil {
		return err
	}
	pix, err := s.rgba.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("reading frame pixels: %w", err)
	}
	copy(dst.Pix(), pix)
	return nil
}

// Ended reports whether a file source ran out of frames.
func (s *captureSource) Ended() bool { return s.ended }

func (s *captureSource) Close() error {
	if err := s.bgr.Close(); err != nil {
		return err
	}
	if err := s.rgba.Close(); err != nil {
		return err
	}
	return s.cap.Close()
}
