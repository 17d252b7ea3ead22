// Package motion defines the shared kinematic types for the driver-behavior
// pipeline: three-axis sensor vectors, timestamped samples, and the processed
// per-tick result emitted by the fusion engine.
package motion

import "math"

// Axis labels a sensor axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// StandardGravity is the reference gravity magnitude in m/s².
const StandardGravity = 9.81

// Vector3D is a three-axis sensor reading. Units are m/s² for accelerometer
// data and rad/s for gyroscope data.
type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Magnitude returns the Euclidean norm of the vector.
func (v Vector3D) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - o.
func (v Vector3D) Sub(o Vector3D) Vector3D {
	return Vector3D{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v Vector3D) Add(o Vector3D) Vector3D {
	return Vector3D{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v scaled by f.
func (v Vector3D) Scale(f float64) Vector3D {
	return Vector3D{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Normalized returns the unit vector in the direction of v, or the zero
// vector when |v| is zero.
func (v Vector3D) Normalized() Vector3D {
	m := v.Magnitude()
	if m == 0 {
		return Vector3D{}
	}
	return v.Scale(1 / m)
}

// Component returns the signed component of v on the given axis.
func (v Vector3D) Component(a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// Sample is one timestamped accelerometer reading, optionally paired with a
// gyroscope reading taken within the matching window.
type Sample struct {
	// TimestampMs is absolute Unix milliseconds.
	TimestampMs int64     `json:"timestamp_ms"`
	Accel       Vector3D  `json:"accel"`
	Gyro        *Vector3D `json:"gyro,omitempty"`
}

// HasGyro reports whether a time-matched gyroscope reading is attached.
func (s Sample) HasGyro() bool { return s.Gyro != nil }

// ProcessedSample is the per-tick output of the fusion engine. It is
// ephemeral: callers must not retain references across ticks except for
// aggregate statistics.
type ProcessedSample struct {
	TimestampMs int64
	Raw         Vector3D
	Compensated Vector3D
	Filtered    Vector3D

	// DrivingAcceleration is the signed m/s² estimate along the vehicle's
	// forward axis. Positive is acceleration, negative is braking.
	DrivingAcceleration float64

	// Quality is the [0,1] reliability score for this tick.
	Quality float64
}

// Clamp01 bounds v to [0,1]. Quality and confidence values flow through this
// before leaving any component.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
