package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reftrack/internal/features"
	"reftrack/internal/pipeline"
	"reftrack/pkg/geometry"
)

var (
	detectJSON bool
	detectViz  string
)

var detectCmd = &cobra.Command{
	Use:   "detect <reference> <frame>",
	Short: "Locate the reference image inside a single frame image",
	Args:  cobra.ExactArgs(2),
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print the result as JSON")
	detectCmd.Flags().StringVar(&detectViz, "viz", "", "write a side-by-side match visualization to this PNG file")
}

// detectReport is the JSON shape of a single detection.
type detectReport struct {
	Found     bool               `json:"found"`
	Corners   []geometry.Point2D `json:"corners,omitempty"`
	Matches   int                `json:"matches"`
	Plausible bool               `json:"plausible"`
}

func buildReport(result pipeline.Result) detectReport {
	report := detectReport{
		Found:   result.Found,
		Matches: len(result.Matches),
	}
	if result.Found {
		quad := result.Corners[:]
		report.Corners = quad
		report.Plausible = geometry.IsConvex(quad) && !geometry.SelfIntersects(quad)
	}
	return report
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	refImg, refBuf, err := loadImage(args[0])
	if err != nil {
		return err
	}
	defer refBuf.Release()

	frameImg, frameBuf, err := loadImage(args[1])
	if err != nil {
		return err
	}
	defer frameBuf.Release()

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

	var viz *pipeline.Visualization
	if detectViz != "" {
		session.SetVisualizationSink(func(v *pipeline.Visualization) { viz = v })
	}

	if err := session.Start(); err != nil {
		return err
	}
	result, ok := session.RunTick(&staticSource{frame: frameBuf})
	if !ok {
		return fmt.Errorf("detection produced no result")
	}

	report := buildReport(result)

	if detectViz != "" {
		if err := writeVisualization(detectViz, refImg, frameImg, viz, result); err != nil {
			return fmt.Errorf("writing visualization: %w", err)
		}
		log.WithField("path", detectViz).Info("visualization written")
	}

	if detectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if !report.Found {
		fmt.Println("reference not found")
		return nil
	}
	fmt.Printf("reference found with %d matches\n", report.Matches)
	for i, c := range report.Corners {
		fmt.Printf("  corner %d: (%.1f, %.1f)\n", i, c.X, c.Y)
	}
	if !report.Plausible {
		fmt.Println("  warning: projected outline is degenerate")
	}
	return nil
}
