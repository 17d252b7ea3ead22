package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the violation engine.
// The schema matches the /api/config endpoint so the same JSON can be used
// for both startup configuration and runtime updates. Fields omitted from
// the JSON retain their fallback defaults via the Get* accessors, so partial
// configs are safe.
type TuningConfig struct {
	// Violation thresholds (m/s², braking is negative)
	AccelerationThreshold *float64 `json:"acceleration_threshold,omitempty"`
	BrakingThreshold      *float64 `json:"braking_threshold,omitempty"`
	AlertCooldownMs       *int64   `json:"alert_cooldown_ms,omitempty"`

	// Sampling
	SamplingRateHz *float64 `json:"sampling_rate_hz,omitempty"`

	// Feature flags
	EnableSensorFusion        *bool `json:"enable_sensor_fusion,omitempty"`
	EnableMultistageFiltering *bool `json:"enable_multistage_filtering,omitempty"`

	// Filter params
	ProcessNoise        *float64 `json:"process_noise,omitempty"`
	MeasurementNoise    *float64 `json:"measurement_noise,omitempty"`
	CutoffFrequency     *float64 `json:"cutoff_frequency,omitempty"`
	MovingAverageWindow *int     `json:"moving_average_window,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max file
// size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.AccelerationThreshold != nil && *c.AccelerationThreshold <= 0 {
		return fmt.Errorf("acceleration_threshold must be positive, got %f", *c.AccelerationThreshold)
	}
	if c.BrakingThreshold != nil && *c.BrakingThreshold >= 0 {
		return fmt.Errorf("braking_threshold must be negative, got %f", *c.BrakingThreshold)
	}
	if c.AlertCooldownMs != nil && *c.AlertCooldownMs < 0 {
		return fmt.Errorf("alert_cooldown_ms must be non-negative, got %d", *c.AlertCooldownMs)
	}
	if c.SamplingRateHz != nil && *c.SamplingRateHz <= 0 {
		return fmt.Errorf("sampling_rate_hz must be positive, got %f", *c.SamplingRateHz)
	}
	if c.ProcessNoise != nil && *c.ProcessNoise <= 0 {
		return fmt.Errorf("process_noise must be positive, got %f", *c.ProcessNoise)
	}
	if c.MeasurementNoise != nil && *c.MeasurementNoise <= 0 {
		return fmt.Errorf("measurement_noise must be positive, got %f", *c.MeasurementNoise)
	}
	if c.CutoffFrequency != nil && *c.CutoffFrequency <= 0 {
		return fmt.Errorf("cutoff_frequency must be positive, got %f", *c.CutoffFrequency)
	}
	if c.MovingAverageWindow != nil && *c.MovingAverageWindow < 1 {
		return fmt.Errorf("moving_average_window must be at least 1, got %d", *c.MovingAverageWindow)
	}
	return nil
}

// Get* accessors return the configured value or a hardcoded fallback default.
// The fallbacks mirror config/tuning.defaults.json.

func (c *TuningConfig) GetAccelerationThreshold() float64 {
	if c.AccelerationThreshold != nil {
		return *c.AccelerationThreshold
	}
	return 6.5
}

func (c *TuningConfig) GetBrakingThreshold() float64 {
	if c.BrakingThreshold != nil {
		return *c.BrakingThreshold
	}
	return -6.5
}

func (c *TuningConfig) GetAlertCooldownMs() int64 {
	if c.AlertCooldownMs != nil {
		return *c.AlertCooldownMs
	}
	return 5000
}

func (c *TuningConfig) GetSamplingRateHz() float64 {
	if c.SamplingRateHz != nil {
		return *c.SamplingRateHz
	}
	return 10
}

func (c *TuningConfig) GetEnableSensorFusion() bool {
	if c.EnableSensorFusion != nil {
		return *c.EnableSensorFusion
	}
	return true
}

func (c *TuningConfig) GetEnableMultistageFiltering() bool {
	if c.EnableMultistageFiltering != nil {
		return *c.EnableMultistageFiltering
	}
	return true
}

func (c *TuningConfig) GetProcessNoise() float64 {
	if c.ProcessNoise != nil {
		return *c.ProcessNoise
	}
	return 0.01
}

func (c *TuningConfig) GetMeasurementNoise() float64 {
	if c.MeasurementNoise != nil {
		return *c.MeasurementNoise
	}
	return 0.5
}

func (c *TuningConfig) GetCutoffFrequency() float64 {
	if c.CutoffFrequency != nil {
		return *c.CutoffFrequency
	}
	return 2.0
}

func (c *TuningConfig) GetMovingAverageWindow() int {
	if c.MovingAverageWindow != nil {
		return *c.MovingAverageWindow
	}
	return 5
}
