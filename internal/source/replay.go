package source

import (
	"context"
	"time"

	"github.com/fleetsense-data/behavior.report/internal/dataset"
	"github.com/fleetsense-data/behavior.report/internal/monitoring"
)

// ReplaySource feeds a recorded session as if it were live, pacing delivery
// by the recorded inter-sample gaps. Used in dev mode to exercise the full
// monitor without hardware. Timestamps are rebased to the current wall
// clock so cooldown comparisons behave as they would on-device.
type ReplaySource struct {
	Session *dataset.Session

	// Speedup divides the recorded gaps; 0 means real time.
	Speedup float64
}

// Run replays the session once and returns.
func (r *ReplaySource) Run(ctx context.Context, h Handler) error {
	if len(r.Session.Samples) == 0 {
		return nil
	}
	speedup := r.Speedup
	if speedup <= 0 {
		speedup = 1
	}
	monitoring.Logf("source: replaying session %s (%d samples at %.1fx)", r.Session.Name, len(r.Session.Samples), speedup)

	baseRecorded := r.Session.Samples[0].TimestampMs
	baseWall := time.Now().UnixMilli()

	for _, s := range r.Session.Samples {
		offset := float64(s.TimestampMs-baseRecorded) / speedup
		due := time.UnixMilli(baseWall + int64(offset))
		if wait := time.Until(due); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		live := s
		live.TimestampMs = time.Now().UnixMilli()
		h(live)
	}
	return nil
}
