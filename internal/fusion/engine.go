package fusion

import (
	"sync"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/filter"
	"github.com/fleetsense-data/behavior.report/internal/motion"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

// Engine ties calibration, gravity compensation, the multistage filter,
// driving-axis estimation and quality scoring into a single per-sample
// pipeline. One engine owns one CalibrationState; the state is replaced
// wholesale on reset.
//
// With EnableSensorFusion disabled the engine runs a degraded magnitude-only
// mode: no calibration phase, unsigned |a|−g estimates, and no
// orientation-based quality factor. This is the baseline the validation
// coordinator compares the full pipeline against.
type Engine struct {
	mu       sync.Mutex
	settings config.Settings
	clk      timeutil.Clock
	cal      *CalibrationState
	filt     *filter.Multistage
}

// NewEngine builds an engine for the given settings. A nil clock means wall
// clock; the offline harness passes a ReplayClock.
func NewEngine(settings config.Settings, clk timeutil.Clock) *Engine {
	if clk == nil {
		clk = timeutil.RealClock{}
	}
	e := &Engine{
		settings: settings,
		clk:      clk,
		filt:     filter.NewMultistage(filterParams(settings)),
	}
	e.cal = newCalibrationState(clk.Now())
	return e
}

func filterParams(s config.Settings) filter.Params {
	return filter.Params{
		ProcessNoise:        s.ProcessNoise,
		MeasurementNoise:    s.MeasurementNoise,
		CutoffFrequency:     s.CutoffFrequency,
		SamplingRateHz:      s.SamplingRateHz,
		MovingAverageWindow: s.MovingAverageWindow,
	}
}

// StartCalibration discards any learned state and begins collecting
// calibration samples from now.
func (e *Engine) StartCalibration() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cal = newCalibrationState(e.clk.Now())
	e.filt.Reset()
}

// AddCalibrationSample feeds one raw accelerometer reading to the
// calibrator. Returns true when calibration completed on this call.
func (e *Engine) AddCalibrationSample(v motion.Vector3D) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.settings.EnableSensorFusion {
		return false
	}
	return e.cal.add(v, e.clk)
}

// IsCalibrated reports whether the engine is ready to produce signed
// estimates. A fusion-disabled engine has nothing to learn and is always
// ready.
func (e *Engine) IsCalibrated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.settings.EnableSensorFusion {
		return true
	}
	return e.cal.Calibrated
}

// CalibrationProgress returns samples/150 clamped to 1.
func (e *Engine) CalibrationProgress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.settings.EnableSensorFusion {
		return 1
	}
	return e.cal.Progress()
}

// Orientation returns the detected device orientation. Zero value until
// calibrated.
func (e *Engine) Orientation() DeviceOrientation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cal.Orientation
}

// DrivingAxis returns the learned driving axis label.
func (e *Engine) DrivingAxis() motion.Axis {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cal.DrivingAxis
}

// GravityVector returns the learned gravity vector. Zero until calibrated.
func (e *Engine) GravityVector() motion.Vector3D {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cal.GravityVector
}

// Process runs one sample through compensation, filtering, estimation and
// quality scoring. It never blocks and is safe to call at sensor rate.
func (e *Engine) Process(s motion.Sample) motion.ProcessedSample {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw := s.Accel
	compensated := raw
	if e.settings.EnableSensorFusion {
		compensated = e.cal.compensate(raw)
	}

	filtered := compensated
	if e.settings.EnableMultistageFiltering {
		filtered = e.filt.Filter(compensated)
	}

	var driving float64
	if e.settings.EnableSensorFusion {
		driving = e.cal.estimateDrivingAcceleration(filtered)
	} else {
		driving = filtered.Magnitude() - motion.StandardGravity
	}

	return motion.ProcessedSample{
		TimestampMs:         s.TimestampMs,
		Raw:                 raw,
		Compensated:         compensated,
		Filtered:            filtered,
		DrivingAcceleration: driving,
		Quality:             e.cal.scoreQuality(raw, s.HasGyro()),
	}
}

// Settings returns the engine's current settings.
func (e *Engine) Settings() config.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings swaps in new settings and rebuilds the filter chain so no
// parameters bleed through from the previous configuration. Calibration is
// kept: thresholds and filter tuning do not invalidate the learned gravity.
func (e *Engine) UpdateSettings(settings config.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = settings
	e.filt.UpdateParameters(filterParams(settings))
}
