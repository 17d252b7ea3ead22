package config

// Settings is the flat configuration value handed to the engine and monitor
// at construction. There is no global settings state: components own their
// copy and callers push changes through an explicit UpdateSettings call on
// the owning component, which rebuilds dependent stages (notably the filter).
type Settings struct {
	AccelerationThreshold float64 // m/s², > 0
	BrakingThreshold      float64 // m/s², < 0
	AlertCooldownMs       int64
	SamplingRateHz        float64

	EnableSensorFusion        bool
	EnableMultistageFiltering bool

	// Filter parameters
	ProcessNoise        float64
	MeasurementNoise    float64
	CutoffFrequency     float64 // Hz
	MovingAverageWindow int
}

// SettingsFromTuning builds a Settings from a loaded TuningConfig.
// Use this in production code where the TuningConfig is already loaded.
func SettingsFromTuning(cfg *TuningConfig) Settings {
	return Settings{
		AccelerationThreshold:     cfg.GetAccelerationThreshold(),
		BrakingThreshold:          cfg.GetBrakingThreshold(),
		AlertCooldownMs:           cfg.GetAlertCooldownMs(),
		SamplingRateHz:            cfg.GetSamplingRateHz(),
		EnableSensorFusion:        cfg.GetEnableSensorFusion(),
		EnableMultistageFiltering: cfg.GetEnableMultistageFiltering(),
		ProcessNoise:              cfg.GetProcessNoise(),
		MeasurementNoise:          cfg.GetMeasurementNoise(),
		CutoffFrequency:           cfg.GetCutoffFrequency(),
		MovingAverageWindow:       cfg.GetMovingAverageWindow(),
	}
}

// DefaultSettings returns settings loaded from the canonical tuning defaults
// file (config/tuning.defaults.json). Panics if the file cannot be found,
// intended for tests and binaries that have already validated config
// availability.
func DefaultSettings() Settings {
	return SettingsFromTuning(MustLoadDefaultConfig())
}
