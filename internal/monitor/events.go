package monitor

import (
	"fmt"

	"github.com/google/uuid"
)

// ViolationType distinguishes harsh acceleration from harsh braking.
type ViolationType string

const (
	ViolationAcceleration ViolationType = "acceleration"
	ViolationBraking      ViolationType = "braking"
)

// ViolationEvent records one detected violation. Events are immutable once
// emitted: they are appended to the in-memory log and never mutated or
// removed.
type ViolationEvent struct {
	ID            string        `json:"id"`
	TimestampMs   int64         `json:"timestamp_ms"`
	Type          ViolationType `json:"type"`
	Value         float64       `json:"value"`     // m/s² driving acceleration at detection
	Threshold     float64       `json:"threshold"` // the threshold that was crossed
	Quality       float64       `json:"quality"`
	WasCalibrated bool          `json:"was_calibrated"`
}

func newViolationEvent(timestampMs int64, t ViolationType, value, threshold, quality float64, calibrated bool) ViolationEvent {
	return ViolationEvent{
		ID:            uuid.New().String(),
		TimestampMs:   timestampMs,
		Type:          t,
		Value:         value,
		Threshold:     threshold,
		Quality:       quality,
		WasCalibrated: calibrated,
	}
}

// String renders the event for logs and the plain-text event listing.
func (e ViolationEvent) String() string {
	return fmt.Sprintf("%d %s value=%.2f threshold=%.2f quality=%.2f", e.TimestampMs, e.Type, e.Value, e.Threshold, e.Quality)
}

// Notifier receives emitted violation events. The monitor only exposes the
// event; presentation (haptics, UI banners, persistence) is the caller's
// concern. Notifiers must not block.
type Notifier func(ViolationEvent)
