package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/LdDl/centroid-mot/mot"
)

type Config struct {
	Tracker TrackerConfig `yaml:"tracker"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TrackerConfig mirrors mot.CentroidTracker construction parameters.
// Numeric thresholds are pointers so an explicit zero survives defaulting.
type TrackerConfig struct {
	MaxDisappeared   *int         `yaml:"max_disappeared"`
	MaxDistance      *float64     `yaml:"max_distance"`
	Algorithm        string       `yaml:"algorithm"`
	IntegerCentroids bool         `yaml:"integer_centroids"`
	ValidateBoxes    bool         `yaml:"validate_boxes"`
	Motion           MotionConfig `yaml:"motion"`
}

type MotionConfig struct {
	Enabled bool `yaml:"enabled"`
	// Seconds between frames
	Dt float64 `yaml:"dt"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Listen address for /metrics; empty disables the endpoint
	Addr string `yaml:"addr"`
}

// Default returns configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load reads config from YAML file and applies environment variable overrides.
// Empty path skips the file and starts from defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Tracker.MaxDisappeared == nil {
		v := mot.DefaultMaxDisappeared
		cfg.Tracker.MaxDisappeared = &v
	}
	if cfg.Tracker.MaxDistance == nil {
		v := mot.DefaultMaxDistance
		cfg.Tracker.MaxDistance = &v
	}
	if cfg.Tracker.Algorithm == "" {
		cfg.Tracker.Algorithm = mot.MatchingAlgorithmGreedy.String()
	}
	if cfg.Tracker.Motion.Dt == 0 {
		cfg.Tracker.Motion.Dt = 1.0
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MOT_MAX_DISAPPEARED"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MOT_MAX_DISAPPEARED: %w", err)
		}
		cfg.Tracker.MaxDisappeared = &n
	}
	if v := os.Getenv("MOT_MAX_DISTANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse MOT_MAX_DISTANCE: %w", err)
		}
		cfg.Tracker.MaxDistance = &f
	}
	if v := os.Getenv("MOT_ALGORITHM"); v != "" {
		cfg.Tracker.Algorithm = v
	}
	if v := os.Getenv("MOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MOT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	return nil
}

// Validate rejects values the tracker cannot work with.
func (cfg *Config) Validate() error {
	if cfg.Tracker.MaxDisappeared != nil && *cfg.Tracker.MaxDisappeared < 0 {
		return fmt.Errorf("tracker.max_disappeared must be non-negative, got %d", *cfg.Tracker.MaxDisappeared)
	}
	if cfg.Tracker.MaxDistance != nil && *cfg.Tracker.MaxDistance < 0 {
		return fmt.Errorf("tracker.max_distance must be non-negative, got %f", *cfg.Tracker.MaxDistance)
	}
	if _, err := mot.ParseMatchingAlgorithm(cfg.Tracker.Algorithm); err != nil {
		return fmt.Errorf("tracker.algorithm: %w", err)
	}
	if cfg.Tracker.Motion.Dt < 0 {
		return fmt.Errorf("tracker.motion.dt must be non-negative, got %f", cfg.Tracker.Motion.Dt)
	}
	return nil
}

// NewTracker builds tracker from configuration. Extra options (hooks) are appended.
func (tc TrackerConfig) NewTracker(extra ...mot.Option) (*mot.CentroidTracker, error) {
	algorithm, err := mot.ParseMatchingAlgorithm(tc.Algorithm)
	if err != nil {
		return nil, err
	}
	maxDisappeared := mot.DefaultMaxDisappeared
	if tc.MaxDisappeared != nil {
		maxDisappeared = *tc.MaxDisappeared
	}
	maxDistance := mot.DefaultMaxDistance
	if tc.MaxDistance != nil {
		maxDistance = *tc.MaxDistance
	}

	opts := []mot.Option{mot.WithMatchingAlgorithm(algorithm)}
	if tc.IntegerCentroids {
		opts = append(opts, mot.WithIntegerCentroids())
	}
	if tc.ValidateBoxes {
		opts = append(opts, mot.WithBoxValidation())
	}
	if tc.Motion.Enabled {
		opts = append(opts, mot.WithMotionModel(tc.Motion.Dt))
	}
	opts = append(opts, extra...)
	return mot.NewCentroidTracker(maxDisappeared, maxDistance, opts...), nil
}
