package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/fleetsense-data/behavior.report/internal/monitoring"
	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// SerialSource reads samples from a serial-attached IMU. The device writes
// one CSV line per sample:
//
//	<uptime_ms>,<ax>,<ay>,<az>[,<gx>,<gy>,<gz>]
//
// Uptime is the device's monotonic milliseconds; it is rebased onto host
// Unix time at the first line so timestamps line up with the wall clock the
// monitor compares against.
type SerialSource struct {
	Path string
	Baud int
}

// NewSerialSource builds a source for the given device path. A zero baud
// rate defaults to 115200.
func NewSerialSource(path string, baud int) *SerialSource {
	if baud == 0 {
		baud = 115200
	}
	return &SerialSource{Path: path, Baud: baud}
}

// Run opens the port and delivers samples until ctx is cancelled or the
// port fails. Malformed lines are skipped with a log line.
func (s *SerialSource) Run(ctx context.Context, h Handler) error {
	port, err := serial.Open(s.Path, &serial.Mode{BaudRate: s.Baud})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.Path, err)
	}
	// Closing the port unblocks the scanner when the context ends.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	monitoring.Logf("source: reading from serial port %s at %d baud", s.Path, s.Baud)

	var baseUnixMs, baseUptimeMs int64
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		uptimeMs, sample, err := parseSerialLine(line)
		if err != nil {
			monitoring.Logf("source: skipping line: %v", err)
			continue
		}
		if baseUnixMs == 0 {
			baseUnixMs = time.Now().UnixMilli()
			baseUptimeMs = uptimeMs
		}
		sample.TimestampMs = baseUnixMs + (uptimeMs - baseUptimeMs)
		h(sample)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("serial read: %w", err)
	}
	return nil
}

// parseSerialLine parses one device line into a sample with the device
// uptime still attached.
func parseSerialLine(line string) (int64, motion.Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 4 && len(fields) != 7 {
		return 0, motion.Sample{}, fmt.Errorf("expected 4 or 7 fields, got %d", len(fields))
	}

	uptime, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return 0, motion.Sample{}, fmt.Errorf("parse uptime: %w", err)
	}

	vals := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0, motion.Sample{}, fmt.Errorf("parse field %d: %w", i+1, err)
		}
		vals[i] = v
	}

	sample := motion.Sample{Accel: motion.Vector3D{X: vals[0], Y: vals[1], Z: vals[2]}}
	if len(vals) == 6 {
		sample.Gyro = &motion.Vector3D{X: vals[3], Y: vals[4], Z: vals[5]}
	}
	return uptime, sample, nil
}
