package fusion

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fleetsense-data/behavior.report/internal/monitoring"
	"github.com/fleetsense-data/behavior.report/internal/motion"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

const (
	// MaxCalibrationSamples is the calibration buffer capacity.
	MaxCalibrationSamples = 150

	// MinCalibrationSamples is the floor below which calibration never
	// completes, not even on timeout.
	MinCalibrationSamples = 100

	// stabilityWindow is the trailing window checked for stillness.
	stabilityWindow = 30

	// stabilityCheckInterval spaces the early-completion checks past the
	// minimum sample count.
	stabilityCheckInterval = 20

	// stabilityVarianceMax is the per-axis variance ceiling ((m/s²)²) for a
	// window to count as stable.
	stabilityVarianceMax = 0.3

	// stabilityMagnitudeTolerance bounds how far the window's mean magnitude
	// may sit from standard gravity (m/s²).
	stabilityMagnitudeTolerance = 3.0

	// CalibrationTimeout forces completion so the monitor is never gated
	// forever. Requires MinCalibrationSamples to have accumulated.
	CalibrationTimeout = 30 * time.Second
)

// CalibrationState holds everything a fusion engine learned during its
// calibration phase. One instance is owned by one engine; it is replaced
// wholesale on reset and never partially mutated by other components.
type CalibrationState struct {
	GravityVector motion.Vector3D
	DeviceBias    motion.Vector3D
	Orientation   DeviceOrientation
	DrivingAxis   motion.Axis
	Calibrated    bool

	samples   []motion.Vector3D
	startTime time.Time
}

// newCalibrationState returns a fresh state with the buffer allocated.
func newCalibrationState(start time.Time) *CalibrationState {
	return &CalibrationState{
		samples:   make([]motion.Vector3D, 0, MaxCalibrationSamples),
		startTime: start,
		// DrivingAxis stays meaningful even before calibration so reads
		// always yield one of the three labels.
		DrivingAxis: motion.AxisY,
	}
}

// SampleCount returns the number of buffered calibration samples.
func (c *CalibrationState) SampleCount() int { return len(c.samples) }

// Progress returns samples/150 clamped to 1.
func (c *CalibrationState) Progress() float64 {
	return motion.Clamp01(float64(len(c.samples)) / MaxCalibrationSamples)
}

// add appends v and runs the completion checks. Returns true when
// calibration completed on this call.
func (c *CalibrationState) add(v motion.Vector3D, clk timeutil.Clock) bool {
	if c.Calibrated {
		return false
	}
	if len(c.samples) < MaxCalibrationSamples {
		c.samples = append(c.samples, v)
	}
	n := len(c.samples)

	// Liveness bound: past the timeout, finish with whatever we have as
	// long as the minimum count is met.
	if n >= MinCalibrationSamples && clk.Since(c.startTime) >= CalibrationTimeout {
		monitoring.Logf("calibration: forced completion after timeout with %d samples", n)
		c.complete()
		return true
	}

	if n == MaxCalibrationSamples {
		if c.windowStable() {
			c.complete()
			return true
		}
		// Full buffer, still shaking: start over. The start time is kept so
		// the timeout bounds the whole attempt, not each restart.
		monitoring.Logf("calibration: buffer full without stability, restarting")
		c.samples = c.samples[:0]
		return false
	}

	if n >= MinCalibrationSamples && (n-MinCalibrationSamples)%stabilityCheckInterval == 0 {
		if c.windowStable() {
			c.complete()
			return true
		}
	}
	return false
}

// windowStable checks the trailing stabilityWindow samples: per-axis
// variance below the ceiling and mean magnitude near standard gravity.
func (c *CalibrationState) windowStable() bool {
	if len(c.samples) < stabilityWindow {
		return false
	}
	window := c.samples[len(c.samples)-stabilityWindow:]

	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	zs := make([]float64, len(window))
	magSum := 0.0
	for i, s := range window {
		xs[i], ys[i], zs[i] = s.X, s.Y, s.Z
		magSum += s.Magnitude()
	}

	if stat.Variance(xs, nil) >= stabilityVarianceMax ||
		stat.Variance(ys, nil) >= stabilityVarianceMax ||
		stat.Variance(zs, nil) >= stabilityVarianceMax {
		return false
	}

	meanMag := magSum / float64(len(window))
	return math.Abs(meanMag-motion.StandardGravity) <= stabilityMagnitudeTolerance
}

// complete averages the buffer into the gravity vector, derives bias and
// orientation, and marks the state calibrated.
func (c *CalibrationState) complete() {
	var sum motion.Vector3D
	for _, s := range c.samples {
		sum = sum.Add(s)
	}
	c.GravityVector = sum.Scale(1 / float64(len(c.samples)))

	// Bias is the excess (or shortfall) of measured gravity over 9.81,
	// pointed along the gravity direction.
	excess := c.GravityVector.Magnitude() - motion.StandardGravity
	c.DeviceBias = c.GravityVector.Normalized().Scale(excess)

	c.Orientation = detectOrientation(c.GravityVector)
	c.DrivingAxis = c.Orientation.Tertiary
	c.Calibrated = true

	monitoring.Logf("calibration: complete after %d samples, gravity=%.2f m/s², driving axis=%s (%s, confidence %.2f)",
		len(c.samples), c.GravityVector.Magnitude(), c.DrivingAxis,
		c.Orientation.Description, c.Orientation.Confidence)
}
