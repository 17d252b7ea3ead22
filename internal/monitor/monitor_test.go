package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/motion"
	"github.com/fleetsense-data/behavior.report/internal/testutil"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

func testSettings() config.Settings {
	return config.Settings{
		AccelerationThreshold: 6.5,
		BrakingThreshold:      -6.5,
		AlertCooldownMs:       5000,
		SamplingRateHz:        10,
		EnableSensorFusion:    true,
		// Filtering off so a single sample crosses the threshold cleanly.
		EnableMultistageFiltering: false,
		ProcessNoise:              0.01,
		MeasurementNoise:          0.5,
		CutoffFrequency:           2.0,
		MovingAverageWindow:       5,
	}
}

// calibratedMonitor starts a monitor and drives it through calibration with
// a stationary stream.
func calibratedMonitor(t *testing.T, settings config.Settings, clk *timeutil.ReplayClock, notify Notifier) *Monitor {
	t.Helper()
	m := New(settings, clk, notify)
	m.Start()
	require.Equal(t, StateCalibrating, m.State())

	for _, s := range testutil.StationarySamples(150, clk.Now().UnixMilli(), 100) {
		m.Ingest(s)
		if m.State() == StateCalibrated {
			return m
		}
	}
	t.Fatal("monitor did not calibrate")
	return nil
}

func drivingSample(ts time.Time, accelY float64) motion.Sample {
	return motion.Sample{
		TimestampMs: ts.UnixMilli(),
		Accel:       motion.Vector3D{Y: accelY, Z: motion.StandardGravity},
	}
}

func TestMonitorEmitsAccelerationViolation(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	var notified []ViolationEvent
	m := calibratedMonitor(t, testSettings(), clk, func(ev ViolationEvent) {
		notified = append(notified, ev)
	})

	clk.Advance(time.Second)
	p, ev := m.Ingest(drivingSample(clk.Now(), 7.0))
	require.NotNil(t, ev)

	assert.Equal(t, ViolationAcceleration, ev.Type)
	assert.InDelta(t, 7.0, ev.Value, 0.1)
	assert.InDelta(t, 6.5, ev.Threshold, 1e-9)
	assert.Equal(t, clk.Now().UnixMilli(), ev.TimestampMs)
	assert.True(t, ev.WasCalibrated)
	assert.NotEmpty(t, ev.ID)
	assert.Greater(t, p.Quality, 0.5)

	assert.Equal(t, 1, m.SessionViolations())
	assert.Equal(t, 1, m.TotalViolations())
	require.Len(t, notified, 1)
	assert.Equal(t, ev.ID, notified[0].ID)
}

func TestMonitorEmitsBrakingViolation(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := calibratedMonitor(t, testSettings(), clk, nil)

	clk.Advance(time.Second)
	_, ev := m.Ingest(drivingSample(clk.Now(), -7.2))
	require.NotNil(t, ev)
	assert.Equal(t, ViolationBraking, ev.Type)
	assert.InDelta(t, -6.5, ev.Threshold, 1e-9)
	assert.Negative(t, ev.Value)
}

func TestMonitorBelowThresholdIsQuiet(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := calibratedMonitor(t, testSettings(), clk, nil)

	clk.Advance(time.Second)
	_, ev := m.Ingest(drivingSample(clk.Now(), 6.0))
	assert.Nil(t, ev)
	assert.Empty(t, m.Events())
}

func TestMonitorCooldownSuppressesRepeats(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := calibratedMonitor(t, testSettings(), clk, nil)

	clk.Advance(time.Second)
	_, ev := m.Ingest(drivingSample(clk.Now(), 7.0))
	require.NotNil(t, ev)

	// Still harsh 1s later: inside the 5s cooldown, no second event.
	clk.Advance(time.Second)
	_, ev = m.Ingest(drivingSample(clk.Now(), 7.5))
	assert.Nil(t, ev)
	assert.Equal(t, 1, m.SessionViolations())

	// Cooldown elapsed: the next crossing fires.
	clk.Advance(4001 * time.Millisecond)
	_, ev = m.Ingest(drivingSample(clk.Now(), 7.0))
	require.NotNil(t, ev)
	assert.Equal(t, 2, m.SessionViolations())
}

func TestMonitorActiveViolationHold(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := calibratedMonitor(t, testSettings(), clk, nil)
	assert.False(t, m.ActiveViolation())

	clk.Advance(time.Second)
	_, ev := m.Ingest(drivingSample(clk.Now(), 7.0))
	require.NotNil(t, ev)
	assert.True(t, m.ActiveViolation())

	clk.Advance(1900 * time.Millisecond)
	assert.True(t, m.ActiveViolation())

	clk.Advance(200 * time.Millisecond)
	assert.False(t, m.ActiveViolation(), "flag clears after the 2s hold")
}

func TestMonitorSkipsLowQualitySamples(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := calibratedMonitor(t, testSettings(), clk, nil)

	// 30 m/s² on the driving axis is far over the threshold, but the
	// violent magnitude derates quality below the evaluation floor.
	clk.Advance(time.Second)
	p, ev := m.Ingest(drivingSample(clk.Now(), 30))
	assert.Less(t, p.Quality, 0.3)
	assert.Nil(t, ev)
	assert.Empty(t, m.Events())
}

func TestMonitorNoViolationsWhileCalibrating(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := New(testSettings(), clk, nil)
	m.Start()
	require.Equal(t, StateCalibrating, m.State())

	_, ev := m.Ingest(drivingSample(clk.Now(), 9.0))
	assert.Nil(t, ev)
	assert.Equal(t, 0, m.SessionViolations())
}

func TestMonitorLifecycle(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := New(testSettings(), clk, nil)
	assert.Equal(t, StateIdle, m.State())

	// Pause and Resume outside monitoring are no-ops.
	m.Pause()
	assert.Equal(t, StateIdle, m.State())
	m.Resume()
	assert.Equal(t, StateIdle, m.State())

	m.Start()
	assert.Equal(t, StateCalibrating, m.State())

	m.Pause()
	assert.Equal(t, StatePaused, m.State())
	_, ev := m.Ingest(drivingSample(clk.Now(), 9.0))
	assert.Nil(t, ev, "paused monitor ignores samples")

	m.Resume()
	assert.Equal(t, StateCalibrating, m.State())

	m.Stop()
	assert.Equal(t, StateIdle, m.State())
}

func TestMonitorRestartKeepsCalibration(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := calibratedMonitor(t, testSettings(), clk, nil)

	clk.Advance(time.Second)
	_, ev := m.Ingest(drivingSample(clk.Now(), 7.0))
	require.NotNil(t, ev)
	require.Equal(t, 1, m.SessionViolations())

	m.Stop()
	m.Start()

	// A new session over the same mount: calibration survives, per-session
	// counters reset, the lifetime total does not.
	assert.Equal(t, StateCalibrated, m.State())
	assert.Equal(t, 0, m.SessionViolations())
	assert.Equal(t, 1, m.TotalViolations())
	assert.Empty(t, m.Events())
}

func TestMonitorUpdateSettings(t *testing.T) {
	t.Parallel()

	clk := timeutil.NewReplayClock(time.UnixMilli(1_000_000))
	m := calibratedMonitor(t, testSettings(), clk, nil)

	raised := testSettings()
	raised.AccelerationThreshold = 8.0
	m.UpdateSettings(raised)
	assert.Equal(t, raised, m.Settings())

	clk.Advance(time.Second)
	_, ev := m.Ingest(drivingSample(clk.Now(), 7.0))
	assert.Nil(t, ev, "7.0 m/s² is under the raised threshold")
}

func TestViolationEventString(t *testing.T) {
	t.Parallel()

	ev := ViolationEvent{TimestampMs: 1000, Type: ViolationBraking, Value: -7.1, Threshold: -6.5, Quality: 0.8}
	s := ev.String()
	assert.Contains(t, s, "braking")
	assert.Contains(t, s, "-7.10")
}
