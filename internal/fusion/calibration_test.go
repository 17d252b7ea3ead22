package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsense-data/behavior.report/internal/motion"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

// flatReading simulates a device lying on the dashboard: gravity on +z with
// a small deterministic wobble.
func flatReading(i int) motion.Vector3D {
	w := 0.01 * float64(i%3)
	return motion.Vector3D{X: w, Y: -w, Z: motion.StandardGravity + w}
}

func TestCalibrationCompletesWhenStable(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	cal := newCalibrationState(clk.Now())

	done := false
	fed := 0
	for i := 0; i < MaxCalibrationSamples && !done; i++ {
		done = cal.add(flatReading(i), clk)
		fed++
	}

	require.True(t, done, "stable stream should calibrate")
	assert.Equal(t, MinCalibrationSamples, fed, "first stability check fires at the minimum sample count")
	assert.True(t, cal.Calibrated)

	assert.InDelta(t, 0, cal.GravityVector.X, 0.05)
	assert.InDelta(t, 0, cal.GravityVector.Y, 0.05)
	assert.InDelta(t, motion.StandardGravity, cal.GravityVector.Z, 0.05)

	assert.Equal(t, motion.AxisZ, cal.Orientation.Primary)
	assert.Equal(t, motion.AxisY, cal.DrivingAxis, "driving axis is the flattest axis")
	assert.Greater(t, cal.Orientation.Confidence, 0.99)
	assert.Equal(t, "Portrait (Face Up)", cal.Orientation.Description)
}

func TestCalibrationNeverCompletesBelowMinimum(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	cal := newCalibrationState(clk.Now())

	for i := 0; i < MinCalibrationSamples-1; i++ {
		done := cal.add(flatReading(i), clk)
		assert.False(t, done, "sample %d completed calibration early", i)
	}
	assert.False(t, cal.Calibrated)

	// Not even an elapsed timeout completes a 99-sample buffer.
	clk.Advance(CalibrationTimeout + time.Second)
	assert.False(t, cal.Calibrated)

	// The 100th sample meets the minimum, and the elapsed timeout then
	// forces completion on that add.
	assert.True(t, cal.add(flatReading(99), clk))
}

func TestCalibrationRestartsOnFullUnstableBuffer(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	cal := newCalibrationState(clk.Now())

	// Violent alternation keeps every stability window unstable.
	for i := 0; i < MaxCalibrationSamples; i++ {
		v := motion.Vector3D{Z: 20}
		if i%2 == 0 {
			v = motion.Vector3D{Z: 0}
		}
		done := cal.add(v, clk)
		assert.False(t, done)
	}

	assert.False(t, cal.Calibrated)
	assert.Equal(t, 0, cal.SampleCount(), "full unstable buffer restarts collection")
	assert.InDelta(t, 0.0, cal.Progress(), 1e-9)
}

func TestCalibrationTimeoutForcesCompletion(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	cal := newCalibrationState(clk.Now())

	// Unstable data that never passes a stability check.
	for i := 0; i < 120; i++ {
		v := motion.Vector3D{Z: 20}
		if i%2 == 0 {
			v = motion.Vector3D{Z: 0}
		}
		require.False(t, cal.add(v, clk))
	}

	clk.Advance(CalibrationTimeout)
	done := cal.add(motion.Vector3D{Z: 10}, clk)
	assert.True(t, done, "timeout with minimum samples forces completion")
	assert.True(t, cal.Calibrated)
}

func TestCalibrationTimeoutSpansRestarts(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	cal := newCalibrationState(clk.Now())

	// Fill and restart once; the start time must not reset.
	for i := 0; i < MaxCalibrationSamples; i++ {
		v := motion.Vector3D{Z: 20}
		if i%2 == 0 {
			v = motion.Vector3D{Z: 0}
		}
		cal.add(v, clk)
	}
	require.Equal(t, 0, cal.SampleCount())

	clk.Advance(CalibrationTimeout + time.Second)
	for i := 0; i < MinCalibrationSamples-1; i++ {
		v := motion.Vector3D{Z: 20}
		if i%2 == 0 {
			v = motion.Vector3D{Z: 0}
		}
		require.False(t, cal.add(v, clk))
	}
	// The 100th post-restart sample meets the minimum while past the
	// timeout measured from the original start.
	assert.True(t, cal.add(motion.Vector3D{Z: 10}, clk))
}

func TestCalibrationProgress(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	cal := newCalibrationState(clk.Now())

	assert.InDelta(t, 0.0, cal.Progress(), 1e-9)
	for i := 0; i < 75; i++ {
		cal.add(flatReading(i), clk)
	}
	assert.InDelta(t, 0.5, cal.Progress(), 1e-9)
}

func TestDeviceBiasPointsAlongGravity(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(0))
	cal := newCalibrationState(clk.Now())

	// A miscalibrated sensor reading 10.3 on z while stationary.
	for !cal.Calibrated {
		cal.add(motion.Vector3D{Z: 10.3}, clk)
	}

	assert.InDelta(t, 0.49, cal.DeviceBias.Z, 1e-6)
	assert.InDelta(t, 0, cal.DeviceBias.X, 1e-9)
	assert.InDelta(t, 0, cal.DeviceBias.Y, 1e-9)
}
