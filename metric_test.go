package ygggo_db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances a fixed step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestMetric_CheckpointsInOrder(t *testing.T) {
	m := NewMetric(fakeClock(10 * time.Millisecond))
	m.Checkpoint("prep")
	m.Checkpoint("exec")
	total := m.Done("fetch")

	assert.Equal(t, 30*time.Millisecond, total)
	assert.Equal(t, "30.0ms(prep=10.0ms,exec=10.0ms,fetch=10.0ms)", m.Message())
}

func TestMetric_ReadOnlyAfterDone(t *testing.T) {
	m := NewMetric(fakeClock(time.Millisecond))
	m.Done("exec")
	before := m.Message()
	m.Checkpoint("late")
	assert.Equal(t, before, m.Message())
}

func TestMetric_NoCheckpoints(t *testing.T) {
	m := NewMetric(fakeClock(5 * time.Millisecond))
	assert.Equal(t, "5.0ms", m.Message())
}

func TestMetric_NilClockDefaultsToWallClock(t *testing.T) {
	m := NewMetric(nil)
	m.Checkpoint("step")
	assert.Contains(t, m.Message(), "step=")
}
