// Package filter implements the multistage noise-reduction chain applied to
// compensated acceleration vectors before threshold evaluation.
//
// The chain runs three stages per axis, in order:
//  1. a scalar Kalman state estimator (random-walk model, no matrix math)
//     that smooths sensor noise while still tracking genuine changes;
//  2. a single-pole low-pass stage that removes high-frequency engine and
//     road vibration above the configured cutoff;
//  3. a trailing moving average that stabilises the output further.
//
// Increasing the moving-average window or lowering the cutoff frequency
// never increases output variance for a fixed input signal.
package filter

import (
	"math"
	"sync"

	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// Params holds the tunable parameters of the chain.
type Params struct {
	ProcessNoise        float64 // Kalman Q
	MeasurementNoise    float64 // Kalman R
	CutoffFrequency     float64 // low-pass cutoff, Hz
	SamplingRateHz      float64
	MovingAverageWindow int
}

// kalmanAxis is a scalar Kalman filter for one axis. The state model is a
// random walk: predict adds Q to the covariance, update blends the
// measurement in by the gain. Grounded on pure-scalar IMU filter practice;
// no matrices needed for a single-axis estimate.
type kalmanAxis struct {
	x           float64 // state estimate
	p           float64 // estimate covariance
	q, r        float64
	initialized bool
}

func (k *kalmanAxis) step(z float64) float64 {
	if !k.initialized {
		k.x = z
		k.p = k.r
		k.initialized = true
		return k.x
	}
	// Predict
	k.p += k.q
	// Update
	gain := k.p / (k.p + k.r)
	k.x += gain * (z - k.x)
	k.p *= 1 - gain
	return k.x
}

// lowPassAxis is a single-pole IIR low-pass. alpha = dt/(RC+dt) with
// RC = 1/(2π·fc), so lower cutoff means smaller alpha and heavier smoothing.
type lowPassAxis struct {
	alpha       float64
	y           float64
	initialized bool
}

func newLowPassAxis(cutoffHz, sampleHz float64) lowPassAxis {
	dt := 1 / sampleHz
	rc := 1 / (2 * math.Pi * cutoffHz)
	return lowPassAxis{alpha: dt / (rc + dt)}
}

func (l *lowPassAxis) step(z float64) float64 {
	if !l.initialized {
		l.y = z
		l.initialized = true
		return l.y
	}
	l.y += l.alpha * (z - l.y)
	return l.y
}

// movingAvgAxis is a trailing moving average over the last window samples.
// Until the ring fills it averages what it has.
type movingAvgAxis struct {
	ring  []float64
	next  int
	count int
	sum   float64
}

func newMovingAvgAxis(window int) movingAvgAxis {
	if window < 1 {
		window = 1
	}
	return movingAvgAxis{ring: make([]float64, window)}
}

func (m *movingAvgAxis) step(z float64) float64 {
	if m.count == len(m.ring) {
		m.sum -= m.ring[m.next]
	} else {
		m.count++
	}
	m.ring[m.next] = z
	m.sum += z
	m.next = (m.next + 1) % len(m.ring)
	return m.sum / float64(m.count)
}

// axisChain is the full three-stage chain for one axis.
type axisChain struct {
	kalman kalmanAxis
	lp     lowPassAxis
	avg    movingAvgAxis
}

func newAxisChain(p Params) *axisChain {
	return &axisChain{
		kalman: kalmanAxis{q: p.ProcessNoise, r: p.MeasurementNoise},
		lp:     newLowPassAxis(p.CutoffFrequency, p.SamplingRateHz),
		avg:    newMovingAvgAxis(p.MovingAverageWindow),
	}
}

func (c *axisChain) step(z float64) float64 {
	return c.avg.step(c.lp.step(c.kalman.step(z)))
}

// Multistage applies the three-stage chain independently to each axis of a
// vector stream. UpdateParameters hot-swaps the parameters without changing
// instance identity; filter history is discarded because the stages are
// stateful in the old parameters.
type Multistage struct {
	mu      sync.Mutex
	params  Params
	x, y, z *axisChain
}

// NewMultistage builds a chain for the given parameters.
func NewMultistage(p Params) *Multistage {
	m := &Multistage{params: p}
	m.rebuildLocked()
	return m
}

func (m *Multistage) rebuildLocked() {
	m.x = newAxisChain(m.params)
	m.y = newAxisChain(m.params)
	m.z = newAxisChain(m.params)
}

// Params returns the current parameters.
func (m *Multistage) Params() Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// UpdateParameters replaces the chain parameters and resets filter state.
func (m *Multistage) UpdateParameters(p Params) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = p
	m.rebuildLocked()
}

// Filter runs one vector through the chain and returns the smoothed vector.
func (m *Multistage) Filter(v motion.Vector3D) motion.Vector3D {
	m.mu.Lock()
	defer m.mu.Unlock()
	return motion.Vector3D{
		X: m.x.step(v.X),
		Y: m.y.step(v.Y),
		Z: m.z.step(v.Z),
	}
}

// Reset clears all filter history while keeping the current parameters.
func (m *Multistage) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuildLocked()
}
