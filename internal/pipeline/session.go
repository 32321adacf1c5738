package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"reftrack/internal/alignment"
	"reftrack/internal/features"
	"reftrack/internal/imaging"
	"reftrack/internal/matching"
	"reftrack/pkg/geometry"
)

// Sentinel errors for session lifecycle misuse.
var (
	ErrEmptyReference = errors.New("reference image has zero area")
	ErrNotReady       = errors.New("session is not ready to start")
	ErrSessionStopped = errors.New("session is stopped")
)

// FrameSource supplies one frame per tick. Implementations fill dst,
// resizing it when the source dimensions change, and may leave it
// zero-area while the source is warming up.
type FrameSource interface {
	Frame(dst *imaging.Buffer) error
}

// Session is the per-detection-session pipeline state: the reference
// descriptor set, a reusable frame buffer, and the stage configurations.
// A Session is bound to one extractor and one reference image; once
// stopped it cannot be restarted.
type Session struct {
	mu     sync.Mutex // guards state, stats, vizSink
	tickMu sync.Mutex // held for the duration of one tick

	cfg       Config
	log       *logrus.Entry
	extractor features.Extractor

	reference  *features.Set
	refSize    geometry.Size
	refCorners [4]geometry.Point2D

	frameBuf *imaging.Buffer

	state State
	stats Stats

	vizSink func(*Visualization)
}

// NewSession computes the reference descriptor set and returns a session
// in the Ready state. A zero-area or invalid reference image is a setup
// failure and fatal to the session; a featureless reference (zero
// keypoints) is accepted and simply localizes nothing.
//
// The session takes ownership of the extractor and closes it on Stop.
// The reference buffer remains owned by the caller.
func NewSession(reference *imaging.Buffer, extractor features.Extractor, cfg Config, logger *logrus.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}
	if reference == nil || reference.Released() || reference.ZeroArea() {
		return nil, ErrEmptyReference
	}

	log := logger.WithField("component", "pipeline")

	refSet, err := extractor.Extract(reference)
	if err != nil {
		return nil, fmt.Errorf("extracting reference features: %w", err)
	}
	if err := refSet.Validate(); err != nil {
		return nil, fmt.Errorf("reference descriptor set: %w", err)
	}

	w := float64(reference.Width())
	h := float64(reference.Height())

	frameBuf, err := imaging.NewBuffer(0, 0, imaging.ChannelsRGBA)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"keypoints": refSet.Len(),
		"width":     reference.Width(),
		"height":    reference.Height(),
	}).Debug("reference features computed")

	return &Session{
		cfg:        cfg,
		log:        log,
		extractor:  extractor,
		reference:  refSet,
		refSize:    geometry.NewSize(w, h),
		refCorners: geometry.NewRect(0, 0, w, h).Corners(),
		frameBuf:   frameBuf,
		state:      StateReady,
	}, nil
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the session's diagnostic counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ReferenceSize returns the reference image dimensions.
func (s *Session) ReferenceSize() geometry.Size {
	return s.refSize
}

// ReferenceKeypoints returns the number of keypoints in the reference set.
func (s *Session) ReferenceKeypoints() int {
	return s.reference.Len()
}

// SetVisualizationSink registers a consumer for per-tick match
// visualizations. Must be called before Start.
func (s *Session) SetVisualizationSink(sink func(*Visualization)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vizSink = sink
}

// Start transitions the session from Ready to Running.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReady:
		s.state = StateRunning
		s.log.Debug("session running")
		return nil
	case StateStopped:
		return ErrSessionStopped
	default:
		return fmt.Errorf("%w: state %s", ErrNotReady, s.state)
	}
}

// RunTick executes one pipeline tick: pull a frame from the source, run
// the per-frame algorithm, and return the result. The second return value
// is false when no result was produced this tick: the session is not
// running, the source frame had zero area, or the source failed.
//
// RunTick must not be called concurrently with itself; the scheduler
// guarantees a single in-flight tick.
func (s *Session) RunTick(source FrameSource) (Result, bool) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return Result{}, false
	}
	frameBuf := s.frameBuf
	s.mu.Unlock()

	if err := source.Frame(frameBuf); err != nil {
		s.log.WithError(err).Warn("frame source failed, skipping tick")
		return Result{}, false
	}

	// Source not delivering yet. Skip without consuming a tick number.
	if frameBuf.ZeroArea() {
		return Result{}, false
	}

	start := time.Now()
	result := s.processFrame(frameBuf)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		// Stopped while the tick was in flight; discard the result.
		return Result{}, false
	}
	s.stats.Ticks++
	s.stats.LastTickNS = time.Since(start).Nanoseconds()
	result.Tick = s.stats.Ticks
	if result.Found {
		s.stats.Found++
	}
	return result, true
}

// processFrame runs steps 2-7 of the per-frame algorithm. Any panic from
// the numeric backend is recovered and downgraded to NotFound: a single
// bad frame must never halt a running session.
func (s *Session) processFrame(frame *imaging.Buffer) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Warn("tick recovered, treating frame as not found")
			s.mu.Lock()
			s.stats.Recovered++
			s.mu.Unlock()
			result = Result{}
		}
	}()

	frameSet, err := s.extractor.Extract(frame)
	if err != nil {
		s.log.WithError(err).Warn("frame extraction failed")
		return Result{}
	}

	if s.reference.Empty() || frameSet.Empty() {
		return Result{}
	}

	matches := matching.MatchDescriptors(s.reference.Descriptors, frameSet.Descriptors, s.cfg.Matching)
	good := matching.SelectGood(matches, s.cfg.Selector)
	if len(good) < alignment.MinCorrespondences {
		return Result{}
	}

	correspondences := make([]alignment.Correspondence, len(good))
	for i, m := range good {
		correspondences[i] = alignment.Correspondence{
			Reference: s.reference.Keypoints[m.ReferenceIndex].Point(),
			Frame:     frameSet.Keypoints[m.FrameIndex].Point(),
		}
	}

	homography, _ := alignment.EstimateHomography(correspondences, s.cfg.Ransac)
	if homography == nil {
		return Result{}
	}

	result = Result{Found: true, Matches: good}
	for i, c := range s.refCorners {
		result.Corners[i] = homography.Apply(c)
	}

	if s.vizSink != nil {
		frameSize := geometry.NewSize(float64(frame.Width()), float64(frame.Height()))
		s.vizSink(BuildVisualization(s.reference, frameSet, good, s.refSize, frameSize, s.cfg.EmphasizeTop))
	}
	return result
}

// Stop tears the session down: no further tick will start, the reusable
// buffers are released, and the extractor is closed. Stop is idempotent
// and Stopped is terminal.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	s.mu.Unlock()

	// Wait out any in-flight tick before releasing its buffers. The flag
	// flip above already guarantees no new tick starts.
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.frameBuf.Release()
	s.reference = nil

	if err := s.extractor.Close(); err != nil {
		s.log.WithError(err).Warn("closing extractor")
	}
	s.log.WithFields(logrus.Fields{
		"ticks": s.stats.Ticks,
		"found": s.stats.Found,
	}).Debug("session stopped")
}
