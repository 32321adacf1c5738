package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"reftrack/internal/features"
	"reftrack/internal/pipeline"
)

var (
	liveDevice int
	liveRate   int
)

var liveCmd = &cobra.Command{
	Use:   "live <reference>",
	Short: "Locate the reference image in a live camera feed",
	Long: `Runs the detection pipeline against a camera device at a fixed tick
rate, printing a line per tick. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runLive,
}

func init() {
	liveCmd.Flags().IntVar(&liveDevice, "device", 0, "camera device id")
	liveCmd.Flags().IntVar(&liveRate, "rate", 15, "ticks per second")
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	_, refBuf, err := loadImage(args[0])
	if err != nil {
		return err
	}
	defer refBuf.Release()

	cap, err := gocv.OpenVideoCapture(liveDevice)
	if err != nil {
		return fmt.Errorf("opening camera %d: %w", liveDevice, err)
	}
	source := newCaptureSource(cap, false)
	defer source.Close()

	extractor, err := features.NewORBExtractor(cfg.Extractor)
	if err != nil {
		return fmt.Errorf("creating extractor: %w", err)
	}
	session, err := pipeline.NewSession(refBuf, extractor, cfg, log)
	if err != nil {
		extractor.Close()
		return fmt.Errorf("creating session: %w", err)
	}

	pacer, err := pipeline.NewIntervalPacer(float64(liveRate))
	if err != nil {
		session.Stop()
		return err
	}
	sched, err := pipeline.NewScheduler(session, source, printResult, pacer, log)
	if err != nil {
		session.Stop()
		return err
	}
	if err := sched.Start(); err != nil {
		session.Stop()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.WithField("rate", liveRate).Info("tracking, Ctrl-C to stop")
	<-ctx.Done()

	sched.Stop()

	stats := session.Stats()
	fmt.Printf("\nticks: %d, found: %d, recovered: %d\n",
		stats.Ticks, stats.Found, stats.Recovered)
	return nil
}

func printResult(r pipeline.Result) {
	fmt.Println(formatResult(r))
}

func formatResult(r pipeline.Result) string {
	if !r.Found {
		return fmt.Sprintf("tick %4d: not found", r.Tick)
	}
	c := r.Corners
	return fmt.Sprintf("tick %4d: found (%d matches) at (%.0f,%.0f) (%.0f,%.0f) (%.0f,%.0f) (%.0f,%.0f)",
		r.Tick, len(r.Matches),
		c[0].X, c[0].Y, c[1].X, c[1].Y, c[2].X, c[2].Y, c[3].X, c[3].Y)
}
