// Command reftrack locates a known reference image inside video frames by
// matching binary keypoint descriptors and verifying the match with a
// RANSAC-fitted homography.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"reftrack/internal/pipeline"
	"reftrack/internal/version"
)

var (
	log = logrus.New()

	debugMode  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     "reftrack",
	Short:   "Locate a reference image in video frames",
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if debugMode {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.InfoLevel)
		}
	},
}

// loadPipelineConfig returns the pipeline configuration, from --config if
// given, defaults otherwise.
func loadPipelineConfig() (pipeline.Config, error) {
	if configPath == "" {
		return pipeline.DefaultConfig(), nil
	}
	return pipeline.LoadConfig(configPath)
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to pipeline config JSON")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
