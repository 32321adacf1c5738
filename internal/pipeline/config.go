package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"reftrack/internal/alignment"
	"reftrack/internal/features"
	"reftrack/internal/matching"
)

// Config bundles the tunable parameters of every pipeline stage.
type Config struct {
	Extractor features.Config         `json:"extractor"`
	Matching  matching.Config         `json:"matching"`
	Selector  matching.SelectorConfig `json:"selector"`
	Ransac    alignment.RansacConfig  `json:"ransac"`

	// EmphasizeTop is how many leading ranks the match visualization
	// flags for emphasis.
	EmphasizeTop int `json:"emphasize_top"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Extractor:    features.DefaultConfig(),
		Matching:     matching.DefaultConfig(),
		Selector:     matching.DefaultSelectorConfig(),
		Ransac:       alignment.DefaultRansacConfig(),
		EmphasizeTop: 10,
	}
}

// Validate checks every stage's parameters.
func (c Config) Validate() error {
	if err := c.Extractor.Validate(); err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	if err := c.Selector.Validate(); err != nil {
		return fmt.Errorf("selector: %w", err)
	}
	if err := c.Ransac.Validate(); err != nil {
		return fmt.Errorf("ransac: %w", err)
	}
	if c.EmphasizeTop < 0 {
		return fmt.Errorf("emphasize_top must be >= 0, got %d", c.EmphasizeTop)
	}
	return nil
}

// LoadConfig reads a pipeline configuration from a JSON file. Missing
// fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
