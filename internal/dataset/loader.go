package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fleetsense-data/behavior.report/internal/monitoring"
	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// GyroMatchWindowMs bounds how far apart an accelerometer row and a
// gyroscope row may be to count as one fused sample.
const GyroMatchWindowMs = 50

// row is one parsed CSV line: an absolute millisecond timestamp and a
// three-axis reading.
type row struct {
	timestampMs int64
	vec         motion.Vector3D
}

// LoadSession parses an accelerometer CSV and an optional gyroscope CSV into
// a canonical session. gyroPath may be empty. Malformed rows are skipped and
// logged, never fatal: a partially recorded drive is still usable.
func LoadSession(name, accelPath, gyroPath string) (*Session, error) {
	accelRows, skipped, err := readRows(accelPath)
	if err != nil {
		return nil, fmt.Errorf("load accel log: %w", err)
	}
	if len(accelRows) == 0 {
		return nil, fmt.Errorf("no parseable rows in %s", accelPath)
	}
	if skipped > 0 {
		monitoring.Logf("dataset: %s: skipped %d malformed accel rows", name, skipped)
	}

	var gyroRows []row
	if gyroPath != "" {
		gyroRows, skipped, err = readRows(gyroPath)
		if err != nil {
			return nil, fmt.Errorf("load gyro log: %w", err)
		}
		if skipped > 0 {
			monitoring.Logf("dataset: %s: skipped %d malformed gyro rows", name, skipped)
		}
	}

	sort.Slice(accelRows, func(i, j int) bool { return accelRows[i].timestampMs < accelRows[j].timestampMs })
	sort.Slice(gyroRows, func(i, j int) bool { return gyroRows[i].timestampMs < gyroRows[j].timestampMs })

	session := &Session{
		Name:         name,
		BehaviorType: behaviorFromName(name),
		Samples:      fuseRows(accelRows, gyroRows),
	}
	session.finalize()
	return session, nil
}

// fuseRows pairs each accel row with the nearest gyro row within the match
// window. Unmatched accel rows keep a nil gyro; the quality scorer pays the
// penalty downstream rather than the load failing.
func fuseRows(accelRows, gyroRows []row) []motion.Sample {
	samples := make([]motion.Sample, 0, len(accelRows))
	gi := 0
	for _, a := range accelRows {
		s := motion.Sample{TimestampMs: a.timestampMs, Accel: a.vec}

		// Advance the gyro cursor while the next row is at least as close.
		for gi+1 < len(gyroRows) &&
			abs64(gyroRows[gi+1].timestampMs-a.timestampMs) <= abs64(gyroRows[gi].timestampMs-a.timestampMs) {
			gi++
		}
		if gi < len(gyroRows) && abs64(gyroRows[gi].timestampMs-a.timestampMs) <= GyroMatchWindowMs {
			g := gyroRows[gi].vec
			s.Gyro = &g
		}
		samples = append(samples, s)
	}
	return samples
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// readRows parses a sensor CSV with a header row. Supported layouts:
//
//	Timestamp, Milliseconds, X, Y, Z
//	Timestamp, Unix Timestamp, Milliseconds, X, Y, Z
//
// The Timestamp column accepts "DD-MM-YYYY HH:MM" with a two- or four-digit
// year, or any RFC 3339 / common layout string. When a Unix Timestamp column
// is present it takes precedence over the parsed date.
func readRows(path string) ([]row, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // layouts vary per file
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, 0, nil
	}

	rows := make([]row, 0, len(records)-1)
	skipped := 0
	for _, rec := range records[1:] { // skip header
		parsed, ok := parseRow(rec)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, parsed)
	}
	return rows, skipped, nil
}

// parseRow converts one CSV record into an absolute-millisecond row.
func parseRow(rec []string) (row, bool) {
	var tsField, msField, xField, yField, zField string
	var unixField string

	switch len(rec) {
	case 5:
		tsField, msField, xField, yField, zField = rec[0], rec[1], rec[2], rec[3], rec[4]
	case 6:
		tsField, unixField, msField = rec[0], rec[1], rec[2]
		xField, yField, zField = rec[3], rec[4], rec[5]
	default:
		return row{}, false
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(msField), 10, 64)
	if err != nil {
		return row{}, false
	}

	var baseMs int64
	if unixField != "" {
		unix, err := strconv.ParseInt(strings.TrimSpace(unixField), 10, 64)
		if err != nil {
			return row{}, false
		}
		baseMs = unix * 1000
	} else {
		t, err := parseTimestamp(strings.TrimSpace(tsField))
		if err != nil {
			return row{}, false
		}
		baseMs = t.UnixMilli()
	}

	x, errX := strconv.ParseFloat(strings.TrimSpace(xField), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(yField), 64)
	z, errZ := strconv.ParseFloat(strings.TrimSpace(zField), 64)
	if errX != nil || errY != nil || errZ != nil {
		return row{}, false
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) {
		return row{}, false
	}

	return row{timestampMs: baseMs + ms, vec: motion.Vector3D{X: x, Y: y, Z: z}}, true
}

// timestampLayouts are tried in order. The recorder apps write day-first
// dates at minute precision; exports from other tooling use RFC 3339.
var timestampLayouts = []string{
	"02-01-2006 15:04",
	"02-01-06 15:04",
	"02-01-2006 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// LoadDirectory loads every session in dir. Accelerometer logs are files
// named <session>.csv; a matching <session>_gyro.csv is fused in when
// present. Sessions that fail to load are skipped with a log line.
func LoadDirectory(dir string) ([]*Session, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}

	var sessions []*Session
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, "_gyro.csv") {
			continue
		}
		base := strings.TrimSuffix(name, ".csv")
		accelPath := filepath.Join(dir, name)
		gyroPath := filepath.Join(dir, base+"_gyro.csv")
		if _, err := os.Stat(gyroPath); err != nil {
			gyroPath = ""
		}

		session, err := LoadSession(base, accelPath, gyroPath)
		if err != nil {
			monitoring.Logf("dataset: skipping %s: %v", name, err)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
