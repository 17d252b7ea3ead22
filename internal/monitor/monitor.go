// Package monitor implements the driver-behavior violation state machine.
//
// The monitor gates threshold checks on calibration and sample quality,
// enforces an alert cooldown, and keeps a transient "active violation" flag
// for UI hysteresis. All time-based behaviour is expressed as clock
// comparisons evaluated on each ingested sample; there are no background
// timers, so irregular sampling intervals cannot cause missed or duplicated
// transitions.
package monitor

import (
	"sync"
	"time"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/fusion"
	"github.com/fleetsense-data/behavior.report/internal/monitoring"
	"github.com/fleetsense-data/behavior.report/internal/motion"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

// State is the monitor's lifecycle state. Calibrating and Calibrated are the
// two sub-states of monitoring.
type State string

const (
	StateIdle        State = "idle"
	StateCalibrating State = "calibrating"
	StateCalibrated  State = "calibrated"
	StatePaused      State = "paused"
)

const (
	// minQuality is the floor below which samples are excluded from
	// violation evaluation. This is expected on rough roads, not an error.
	minQuality = 0.3

	// activeViolationHold is how long the UI-facing active flag stays set
	// after an emission.
	activeViolationHold = 2000 * time.Millisecond
)

// Monitor runs the live violation detection loop over a single stream of
// samples. It is a single-producer pipeline: Ingest processes one sample
// synchronously per call with no internal queueing.
type Monitor struct {
	mu       sync.Mutex
	settings config.Settings
	clk      timeutil.Clock
	engine   *fusion.Engine
	notify   Notifier

	state               State
	lastAlertTime       time.Time
	activeViolationTill time.Time

	events          []ViolationEvent
	sessionCount    int
	totalViolations int
}

// New builds a monitor around a fresh fusion engine. A nil clock means wall
// clock.
func New(settings config.Settings, clk timeutil.Clock, notify Notifier) *Monitor {
	if clk == nil {
		clk = timeutil.RealClock{}
	}
	return &Monitor{
		settings: settings,
		clk:      clk,
		engine:   fusion.NewEngine(settings, clk),
		notify:   notify,
		state:    StateIdle,
	}
}

// Engine exposes the owned fusion engine for read-only queries (progress,
// orientation). Callers must not feed it directly.
func (m *Monitor) Engine() *fusion.Engine { return m.engine }

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start transitions Idle → Monitoring. Per-session counters reset, but an
// already-calibrated engine is reused rather than recalibrated so resuming a
// shift does not re-learn the mount.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return
	}
	m.sessionCount = 0
	m.events = m.events[:0]
	if m.engine.IsCalibrated() {
		m.state = StateCalibrated
	} else {
		m.engine.StartCalibration()
		m.state = StateCalibrating
	}
	monitoring.Logf("monitor: started (%s)", m.state)
}

// Pause detaches from the sample source without touching calibration.
func (m *Monitor) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCalibrating && m.state != StateCalibrated {
		return
	}
	m.state = StatePaused
	monitoring.Logf("monitor: paused")
}

// Resume re-attaches after a pause. Calibration state is preserved.
func (m *Monitor) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return
	}
	if m.engine.IsCalibrated() {
		m.state = StateCalibrated
	} else {
		m.state = StateCalibrating
	}
	monitoring.Logf("monitor: resumed (%s)", m.state)
}

// Stop transitions back to Idle.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
	monitoring.Logf("monitor: stopped")
}

// Ingest processes one delivered sample synchronously and returns the
// processed result plus the violation emitted on this tick, if any. It is a
// no-op outside the monitoring states.
func (m *Monitor) Ingest(s motion.Sample) (motion.ProcessedSample, *ViolationEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateCalibrating && m.state != StateCalibrated {
		return motion.ProcessedSample{}, nil
	}

	p := m.engine.Process(s)

	if m.state == StateCalibrating {
		// No violation checks while learning: a half-calibrated axis would
		// produce false alerts. Calibration samples accumulate regardless
		// of the quality score.
		if m.engine.AddCalibrationSample(s.Accel) {
			m.state = StateCalibrated
		}
		return p, nil
	}

	if p.Quality < minQuality {
		return p, nil
	}

	now := m.clk.Now()
	if !m.lastAlertTime.IsZero() && now.Sub(m.lastAlertTime) < time.Duration(m.settings.AlertCooldownMs)*time.Millisecond {
		return p, nil
	}

	var ev *ViolationEvent
	switch {
	case p.DrivingAcceleration > m.settings.AccelerationThreshold:
		e := newViolationEvent(now.UnixMilli(), ViolationAcceleration, p.DrivingAcceleration, m.settings.AccelerationThreshold, p.Quality, m.engine.IsCalibrated())
		ev = &e
	case p.DrivingAcceleration < m.settings.BrakingThreshold:
		e := newViolationEvent(now.UnixMilli(), ViolationBraking, p.DrivingAcceleration, m.settings.BrakingThreshold, p.Quality, m.engine.IsCalibrated())
		ev = &e
	}
	if ev == nil {
		return p, nil
	}

	m.lastAlertTime = now
	m.activeViolationTill = now.Add(activeViolationHold)
	m.sessionCount++
	m.totalViolations++
	m.events = append(m.events, *ev)
	monitoring.Logf("monitor: %s violation value=%.2f threshold=%.2f quality=%.2f", ev.Type, ev.Value, ev.Threshold, ev.Quality)
	if m.notify != nil {
		m.notify(*ev)
	}
	return p, ev
}

// ActiveViolation reports whether a violation fired within the last two
// seconds. This drives UI hysteresis only.
func (m *Monitor) ActiveViolation() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clk.Now().Before(m.activeViolationTill)
}

// Events returns a copy of the session's violation log.
func (m *Monitor) Events() []ViolationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ViolationEvent, len(m.events))
	copy(out, m.events)
	return out
}

// SessionViolations returns the number of violations this session.
func (m *Monitor) SessionViolations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionCount
}

// TotalViolations returns the count across all sessions since construction.
func (m *Monitor) TotalViolations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalViolations
}

// UpdateSettings applies new settings. The filter chain is rebuilt by the
// engine so old parameters cannot bleed into the new configuration.
func (m *Monitor) UpdateSettings(settings config.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	m.engine.UpdateSettings(settings)
}

// Settings returns the monitor's current settings.
func (m *Monitor) Settings() config.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}
