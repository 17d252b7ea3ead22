package dataset

import (
	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// ResampleSession nearest-neighbour-samples a session onto a fixed targetHz
// grid. Grid points with no source sample within the gyro match window are
// discarded so recording gaps do not fabricate readings. The input session
// is not modified.
func ResampleSession(s *Session, targetHz float64) *Session {
	if targetHz <= 0 || len(s.Samples) == 0 {
		return s
	}

	stepMs := 1000.0 / targetHz
	start := s.Samples[0].TimestampMs
	end := s.Samples[len(s.Samples)-1].TimestampMs

	resampled := make([]motion.Sample, 0, int(float64(end-start)/stepMs)+1)
	si := 0
	for t := float64(start); t <= float64(end); t += stepMs {
		target := int64(t)

		// Advance while the next source sample is at least as close.
		for si+1 < len(s.Samples) &&
			abs64(s.Samples[si+1].TimestampMs-target) <= abs64(s.Samples[si].TimestampMs-target) {
			si++
		}
		nearest := s.Samples[si]
		if abs64(nearest.TimestampMs-target) > GyroMatchWindowMs {
			continue
		}

		out := nearest
		out.TimestampMs = target
		resampled = append(resampled, out)
	}

	result := &Session{
		Name:         s.Name,
		BehaviorType: s.BehaviorType,
		Samples:      resampled,
	}
	result.finalize()
	return result
}
