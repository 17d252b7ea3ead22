package fusion

import (
	"math"

	"github.com/fleetsense-data/behavior.report/internal/motion"
)

const (
	// confidentAxisThreshold is the orientation confidence above which the
	// driving-axis component is used directly.
	confidentAxisThreshold = 0.8

	// minBlendFactor floors the axis weight when blending an uncertain axis
	// with the full-vector magnitude. Carried over unchanged from the field
	// tuning; do not "fix".
	minBlendFactor = 0.3
)

// estimateDrivingAcceleration converts a filtered vector into one signed
// scalar along the vehicle's forward axis.
//
// Uncalibrated, the sign is unknowable, so the estimate degrades to the
// magnitude's excess over standard gravity. With a confident orientation the
// driving-axis component is returned directly. With an uncertain orientation
// the axis component and full magnitude are blended, keeping the axis sign
// but damping reliance on a possibly wrong axis choice.
func (c *CalibrationState) estimateDrivingAcceleration(filtered motion.Vector3D) float64 {
	if !c.Calibrated {
		return filtered.Magnitude() - motion.StandardGravity
	}

	axisValue := filtered.Component(c.DrivingAxis)
	confidence := c.Orientation.Confidence
	if confidence >= confidentAxisThreshold {
		return axisValue
	}

	blendFactor := math.Max(minBlendFactor, confidence)
	axisSign := 1.0
	if axisValue < 0 {
		axisSign = -1.0
	}
	axisMagnitude := math.Abs(axisValue)
	magnitude := filtered.Magnitude()
	return axisSign * (blendFactor*axisMagnitude + (1-blendFactor)*magnitude)
}
