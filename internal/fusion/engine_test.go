package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/motion"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

func testSettings() config.Settings {
	return config.Settings{
		AccelerationThreshold:     6.5,
		BrakingThreshold:          -6.5,
		AlertCooldownMs:           5000,
		SamplingRateHz:            10,
		EnableSensorFusion:        true,
		EnableMultistageFiltering: true,
		ProcessNoise:              0.01,
		MeasurementNoise:          0.5,
		CutoffFrequency:           2.0,
		MovingAverageWindow:       5,
	}
}

func calibrateEngine(t *testing.T, e *Engine) {
	t.Helper()
	e.StartCalibration()
	for i := 0; i < MaxCalibrationSamples; i++ {
		if e.AddCalibrationSample(flatReading(i)) {
			return
		}
	}
	t.Fatal("engine did not calibrate on a stable stream")
}

func TestEngineCalibrationLifecycle(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	e := NewEngine(testSettings(), clk)

	assert.False(t, e.IsCalibrated())
	assert.InDelta(t, 0.0, e.CalibrationProgress(), 1e-9)

	calibrateEngine(t, e)
	assert.True(t, e.IsCalibrated())
	assert.Equal(t, motion.AxisY, e.DrivingAxis())
	assert.InDelta(t, motion.StandardGravity, e.GravityVector().Magnitude(), 0.1)
	assert.Equal(t, "Portrait (Face Up)", e.Orientation().Description)

	// Restarting discards the learned state.
	e.StartCalibration()
	assert.False(t, e.IsCalibrated())
	assert.Equal(t, DeviceOrientation{}, e.Orientation())
}

func TestEngineProcessCalibrated(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.EnableMultistageFiltering = false
	e := NewEngine(settings, timeutil.NewReplayClock(time.UnixMilli(0)))
	calibrateEngine(t, e)

	p := e.Process(motion.Sample{
		TimestampMs: 42,
		Accel:       motion.Vector3D{Y: 3, Z: motion.StandardGravity},
	})

	assert.Equal(t, int64(42), p.TimestampMs)
	assert.Equal(t, motion.Vector3D{Y: 3, Z: motion.StandardGravity}, p.Raw)
	// Gravity removed, driving acceleration read off the y axis.
	assert.InDelta(t, 3, p.Compensated.Y, 0.1)
	assert.InDelta(t, 3, p.DrivingAcceleration, 0.1)
	assert.Greater(t, p.Quality, 0.5)
}

func TestEngineFusionDisabled(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.EnableSensorFusion = false
	settings.EnableMultistageFiltering = false
	e := NewEngine(settings, nil)

	// Nothing to learn: the engine is immediately ready.
	assert.True(t, e.IsCalibrated())
	assert.InDelta(t, 1.0, e.CalibrationProgress(), 1e-9)
	assert.False(t, e.AddCalibrationSample(motion.Vector3D{Z: motion.StandardGravity}))

	// The estimate degrades to the unsigned magnitude excess.
	p := e.Process(motion.Sample{Accel: motion.Vector3D{Z: motion.StandardGravity + 2}})
	assert.InDelta(t, 2, p.DrivingAcceleration, 1e-9)
	assert.Equal(t, p.Raw, p.Compensated, "no compensation without fusion")
}

func TestEngineFilterDisabledPassesThrough(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.EnableSensorFusion = false
	settings.EnableMultistageFiltering = false
	e := NewEngine(settings, nil)

	v := motion.Vector3D{X: 0.3, Y: -1.2, Z: 9.9}
	p := e.Process(motion.Sample{Accel: v})
	assert.Equal(t, v, p.Filtered)
}

func TestEngineUpdateSettingsKeepsCalibration(t *testing.T) {
	t.Parallel()

	e := NewEngine(testSettings(), timeutil.NewReplayClock(time.UnixMilli(0)))
	calibrateEngine(t, e)
	require.True(t, e.IsCalibrated())

	updated := testSettings()
	updated.AccelerationThreshold = 8
	updated.MovingAverageWindow = 3
	e.UpdateSettings(updated)

	assert.True(t, e.IsCalibrated(), "tuning changes must not discard calibration")
	assert.Equal(t, updated, e.Settings())
}
