package fusion

import (
	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// Magnitude-ratio band inside which the calibrated gravity vector is still
// trusted as-is. Outside the band the device has probably rotated since
// calibration and only the gravity direction is reusable.
const (
	gravityRatioMin = 0.8
	gravityRatioMax = 1.2
)

// compensate subtracts learned gravity and device bias from a raw reading to
// isolate vehicle-induced acceleration. It is a no-op until calibrated.
//
// When the raw magnitude is close to the calibrated magnitude the device
// orientation is assumed unchanged and the stored vector is subtracted
// directly. When it is not, the normalized calibrated direction is projected
// onto the current magnitude before subtracting, adapting to rotation
// instead of trusting the stale vector's length.
func (c *CalibrationState) compensate(raw motion.Vector3D) motion.Vector3D {
	if !c.Calibrated {
		return raw
	}

	currentMag := raw.Magnitude()
	calibratedMag := c.GravityVector.Magnitude()
	if calibratedMag == 0 {
		return raw
	}

	ratio := currentMag / calibratedMag
	if ratio >= gravityRatioMin && ratio <= gravityRatioMax {
		return raw.Sub(c.GravityVector).Sub(c.DeviceBias)
	}

	adapted := c.GravityVector.Normalized().Scale(currentMag)
	return raw.Sub(adapted).Sub(c.DeviceBias)
}
