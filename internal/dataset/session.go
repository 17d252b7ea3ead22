// Package dataset loads recorded sensor sessions from CSV logs for offline
// validation. Sessions are labeled safe or risky from their name and are
// immutable once loaded.
package dataset

import (
	"strings"

	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// BehaviorType labels a recorded session for classification purposes.
type BehaviorType string

const (
	BehaviorSafe  BehaviorType = "safe"
	BehaviorRisky BehaviorType = "risky"
)

// Session is one recorded monitoring interval: an ordered, timestamp-sorted
// sample list plus derived statistics. Immutable once loaded.
type Session struct {
	Name         string
	BehaviorType BehaviorType
	Samples      []motion.Sample

	DurationMs          int64
	TotalSamples        int
	AverageSamplingRate float64 // Hz
	GyroMatched         int     // samples with a time-matched gyro reading
}

// behaviorFromName derives the label from the recording's naming convention:
// a "-R" suffix segment or the word "risky" marks risky driving, "-S" or
// "safe" marks safe driving, anything else defaults to safe.
func behaviorFromName(name string) BehaviorType {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "risky") {
		return BehaviorRisky
	}
	if strings.Contains(lower, "safe") {
		return BehaviorSafe
	}
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "-R") {
		return BehaviorRisky
	}
	return BehaviorSafe
}

// finalize computes the derived statistics after samples are sorted.
func (s *Session) finalize() {
	s.TotalSamples = len(s.Samples)
	if len(s.Samples) >= 2 {
		s.DurationMs = s.Samples[len(s.Samples)-1].TimestampMs - s.Samples[0].TimestampMs
	}
	if s.DurationMs > 0 {
		s.AverageSamplingRate = float64(s.TotalSamples) / (float64(s.DurationMs) / 1000.0)
	}
	matched := 0
	for _, smp := range s.Samples {
		if smp.HasGyro() {
			matched++
		}
	}
	s.GyroMatched = matched
}
