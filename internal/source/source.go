// Package source delivers live sensor samples to the monitor. Two transports
// are supported: a serial-attached IMU writing CSV lines and an MQTT broker
// publishing JSON samples. Both push into a Handler callback; the caller
// decides the scheduling context.
package source

import (
	"context"

	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// Handler receives one sample per delivery. Handlers must process the
// sample synchronously and quickly; there is no internal queue.
type Handler func(motion.Sample)

// Source is a push-style sample feed. Run blocks until ctx is cancelled or
// the transport fails.
type Source interface {
	Run(ctx context.Context, h Handler) error
}
