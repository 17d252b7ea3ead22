package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	t.Parallel()

	clk := RealClock{}
	before := time.Now()
	now := clk.Now()
	assert.False(t, now.Before(before))
	assert.GreaterOrEqual(t, clk.Since(before), time.Duration(0))
}

func TestReplayClock(t *testing.T) {
	t.Parallel()

	start := time.UnixMilli(1_000_000)
	clk := NewReplayClock(start)
	assert.True(t, clk.Now().Equal(start))

	clk.Advance(250 * time.Millisecond)
	assert.Equal(t, int64(1_000_250), clk.Now().UnixMilli())
	assert.Equal(t, 250*time.Millisecond, clk.Since(start))

	clk.Set(time.UnixMilli(2_000_000))
	assert.Equal(t, int64(2_000_000), clk.Now().UnixMilli())

	clk.SetUnixMs(3_000_000)
	assert.Equal(t, int64(3_000_000), clk.Now().UnixMilli())

	// Replays only move forward, but the clock itself does not care.
	clk.SetUnixMs(500)
	assert.Equal(t, int64(500), clk.Now().UnixMilli())
}
