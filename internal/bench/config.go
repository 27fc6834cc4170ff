package bench

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	crater "github.com/jamesainslie/go-crater"
	"github.com/jamesainslie/go-crater/ospa"
)

// Config holds evaluation parameters.
type Config struct {
	Truth       string `yaml:"truth"`
	Predictions string `yaml:"predictions"`

	IoUThreshold float64 `yaml:"iou_threshold"`
	PNorm        float64 `yaml:"p_norm"`
	Cutoff       float64 `yaml:"cutoff"`
	Workers      int     `yaml:"workers"`
	Guard        Guard   `yaml:"guard"`

	PrecisionWeight float64 `yaml:"precision_weight"`
	RecallWeight    float64 `yaml:"recall_weight"`
}

// Guard overrides the OSPA exhaustive search guard.
type Guard struct {
	Ratio   int `yaml:"ratio"`
	MinSize int `yaml:"min_size"`
}

// DefaultConfig returns default evaluation configuration.
func DefaultConfig() Config {
	return Config{
		IoUThreshold:    crater.DefaultIoUThreshold,
		PNorm:           ospa.DefaultPNorm,
		Cutoff:          ospa.DefaultCutoff,
		Guard:           Guard{Ratio: ospa.GuardRatio, MinSize: ospa.GuardMinSize},
		PrecisionWeight: 1.0,
		RecallWeight:    1.0,
	}
}

// LoadConfig reads a YAML config file. Unset keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if !(c.IoUThreshold >= 0 && c.IoUThreshold <= 1) {
		return fmt.Errorf("iou_threshold %g outside [0, 1]", c.IoUThreshold)
	}
	if !(c.PNorm >= 1) || math.IsInf(c.PNorm, 1) {
		return fmt.Errorf("p_norm %g must be finite and >= 1", c.PNorm)
	}
	if !(c.Cutoff > 0) || math.IsInf(c.Cutoff, 1) {
		return fmt.Errorf("cutoff %g must be finite and positive", c.Cutoff)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d must not be negative", c.Workers)
	}
	if c.Guard.Ratio < 0 || c.Guard.MinSize < 0 {
		return fmt.Errorf("guard %+v must not be negative", c.Guard)
	}
	if !(c.PrecisionWeight >= 0) || !(c.RecallWeight >= 0) {
		return errors.New("precision and recall weights must not be negative")
	}
	return nil
}

// Options converts the config into scorer options.
func (c Config) Options() []crater.Option {
	return []crater.Option{
		crater.WithIoUThreshold(c.IoUThreshold),
		crater.WithPNorm(c.PNorm),
		crater.WithCutoff(c.Cutoff),
		crater.WithWorkers(c.Workers),
		crater.WithSearchGuard(c.Guard.Ratio, c.Guard.MinSize),
	}
}

// Environment variables read by ApplyEnv.
const (
	EnvTruth        = "CRATER_TRUTH"
	EnvPredictions  = "CRATER_PREDICTIONS"
	EnvIoUThreshold = "CRATER_IOU_THRESHOLD"
	EnvPNorm        = "CRATER_P_NORM"
	EnvCutoff       = "CRATER_CUTOFF"
	EnvWorkers      = "CRATER_WORKERS"
)

// ApplyEnv overrides config fields from CRATER_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvTruth); v != "" {
		c.Truth = v
	}
	if v := os.Getenv(EnvPredictions); v != "" {
		c.Predictions = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{EnvIoUThreshold, &c.IoUThreshold},
		{EnvPNorm, &c.PNorm},
		{EnvCutoff, &c.Cutoff},
	}
	for _, f := range floats {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = x
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}

	return c.Validate()
}

// LoadDotEnv loads environment variables from a .env file. A missing file at
// the default path is not an error; a missing file that was asked for is.
func LoadDotEnv(path string, required bool) error {
	if err := godotenv.Load(path); err != nil {
		if required {
			return fmt.Errorf("load env file: %w", err)
		}
		slog.Debug("skipping env file", "path", path, "error", err)
	}
	return nil
}
