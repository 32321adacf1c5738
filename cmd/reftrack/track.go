package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"reftrack/internal/features"
	"reftrack/internal/pipeline"
)

var trackMaxFrames int

var trackCmd = &cobra.Command{
	Use:   "track <reference> <video>",
	Short: "Locate the reference image in every frame of a video file",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackMaxFrames, "max-frames", 0, "stop after this many frames (0 = all)")
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	_, refBuf, err := loadImage(args[0])
	if err != nil {
		return err
	}
	defer refBuf.Release()

	cap, err := gocv.VideoCaptureFile(args[1])
	if err != nil {
		return fmt.Errorf("opening video %s: %w", args[1], err)
	}
	source := newCaptureSource(cap, true)
	defer source.Close()

	total := int(cap.Get(gocv.VideoCaptureFrameCount))
	if trackMaxFrames > 0 && (total <= 0 || trackMaxFrames < total) {
		total = trackMaxFrames
	}

	extractor, err := features.NewORBExtractor(cfg.Extractor)
	if err != nil {
		return fmt.Errorf("creating extractor: %w", err)
	}
	session, err := pipeline.NewSession(refBuf, extractor, cfg, log)
	if err != nil {
		extractor.Close()
		return fmt.Errorf("creating session: %w", err)
	}
	defer session.Stop()

	if err := session.Start(); err != nil {
		return err
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("tracking"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	frames := 0
	for !source.Ended() {
		if trackMaxFrames > 0 && frames >= trackMaxFrames {
			break
		}
		result, ok := session.RunTick(source)
		if !ok {
			continue
		}
		frames++
		bar.Add(1)
		if result.Found {
			log.WithFields(map[string]interface{}{
				"tick":    result.Tick,
				"matches": len(result.Matches),
			}).Debug("reference found")
		}
	}
	fmt.Fprintln(os.Stderr)

	stats := session.Stats()
	fmt.Printf("frames processed: %d\n", stats.Ticks)
	fmt.Printf("reference found:  %d", stats.Found)
	if stats.Ticks > 0 {
		fmt.Printf(" (%.1f%%)", 100*float64(stats.Found)/float64(stats.Ticks))
	}
	fmt.Println()
	if stats.Recovered > 0 {
		fmt.Printf("recovered ticks:  %d\n", stats.Recovered)
	}
	return nil
}
