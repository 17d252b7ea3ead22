package fusion

import (
	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// scoreQuality rates the reliability of one accelerometer reading in [0,1].
//
// The base score is boosted by a time-matched gyroscope sample and by an
// established calibration, then derated for implausible magnitudes (violent
// shaking or free-fall-like readings) and, when calibrated, by how cleanly
// the device orientation was determined.
func (c *CalibrationState) scoreQuality(accel motion.Vector3D, gyroPresent bool) float64 {
	score := 0.5
	if gyroPresent {
		score += 0.2
	}
	if c.Calibrated {
		score += 0.2
	}

	switch mag := accel.Magnitude(); {
	case mag > 25:
		score *= 0.3
	case mag > 20:
		score *= 0.5
	case mag > 15:
		score *= 0.7
	case mag < 5:
		score *= 0.8
	}

	if c.Calibrated {
		score *= 0.5 + 0.5*c.Orientation.Confidence
	}

	return motion.Clamp01(score)
}
