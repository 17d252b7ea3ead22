package fusion

import (
	"math"

	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// DeviceOrientation describes how the device is mounted, derived from the
// averaged gravity vector at calibration time. Axes are ranked by how much
// gravity they carry: the primary axis is most vertical, the tertiary axis
// is the flattest and is assumed to align with the vehicle's forward and
// backward motion.
type DeviceOrientation struct {
	Primary     motion.Axis `json:"primary"`
	Secondary   motion.Axis `json:"secondary"`
	Tertiary    motion.Axis `json:"tertiary"`
	Confidence  float64     `json:"confidence"`
	Description string      `json:"description"`
}

// detectOrientation ranks |x|, |y|, |z| of the averaged gravity vector
// descending into primary/secondary/tertiary. Confidence is the relative
// separation between the primary and secondary magnitudes: 1.0 when gravity
// lies entirely on one axis, 0 when the top two are indistinguishable.
func detectOrientation(gravity motion.Vector3D) DeviceOrientation {
	type ranked struct {
		axis motion.Axis
		mag  float64
	}
	axes := [3]ranked{
		{motion.AxisX, math.Abs(gravity.X)},
		{motion.AxisY, math.Abs(gravity.Y)},
		{motion.AxisZ, math.Abs(gravity.Z)},
	}
	// Stable insertion sort, descending by magnitude. Ties keep x,y,z order
	// so the result is deterministic.
	for i := 1; i < len(axes); i++ {
		for j := i; j > 0 && axes[j].mag > axes[j-1].mag; j-- {
			axes[j], axes[j-1] = axes[j-1], axes[j]
		}
	}

	confidence := 0.0
	if axes[0].mag > 0 {
		confidence = motion.Clamp01((axes[0].mag - axes[1].mag) / axes[0].mag)
	}

	return DeviceOrientation{
		Primary:     axes[0].axis,
		Secondary:   axes[1].axis,
		Tertiary:    axes[2].axis,
		Confidence:  confidence,
		Description: describeOrientation(axes[0].axis, gravity),
	}
}

// describeOrientation names the mounting position from the dominant gravity
// axis and its sign. The names follow phone-screen conventions: a device
// flat on the dashboard reads gravity on +z ("Face Up").
func describeOrientation(primary motion.Axis, gravity motion.Vector3D) string {
	switch primary {
	case motion.AxisZ:
		if gravity.Z >= 0 {
			return "Portrait (Face Up)"
		}
		return "Portrait (Face Down)"
	case motion.AxisY:
		if gravity.Y >= 0 {
			return "Portrait (Upright)"
		}
		return "Portrait (Upside Down)"
	default:
		if gravity.X >= 0 {
			return "Landscape (Left)"
		}
		return "Landscape (Right)"
	}
}
