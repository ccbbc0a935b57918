package ygggo_db

import (
	"strconv"
	"strings"
	"time"
)

// Metric is an ordered checkpoint timer. Executors create one per statement,
// record a checkpoint after each pipeline step, and render a single
// human-readable latency breakdown for the log line.
//
// Append-only until Done is called; read-only afterwards.
type Metric struct {
	now    func() time.Time
	start  time.Time
	last   time.Time
	points []checkpoint
	done   bool
}

type checkpoint struct {
	label   string
	elapsed time.Duration
}

// NewMetric creates a metric using the given clock. A nil clock falls back
// to time.Now.
func NewMetric(now func() time.Time) *Metric {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Metric{now: now, start: t, last: t}
}

// Checkpoint records the time elapsed since the previous checkpoint (or
// since start for the first one) under the given label.
func (m *Metric) Checkpoint(label string) {
	if m.done {
		return
	}
	t := m.now()
	m.points = append(m.points, checkpoint{label: label, elapsed: t.Sub(m.last)})
	m.last = t
}

// Done records a final checkpoint and freezes the metric, returning the
// total elapsed time.
func (m *Metric) Done(label string) time.Duration {
	m.Checkpoint(label)
	m.done = true
	return m.last.Sub(m.start)
}

// Elapsed returns the total time covered so far.
func (m *Metric) Elapsed() time.Duration {
	if m.done {
		return m.last.Sub(m.start)
	}
	return m.now().Sub(m.start)
}

// Message renders the breakdown, e.g. "12.3ms(prep=1.2ms,exec=9.8ms,fetch=1.3ms)".
func (m *Metric) Message() string {
	var b strings.Builder
	b.Grow(16 + 16*len(m.points))
	writeMillis(&b, m.Elapsed())
	if len(m.points) > 0 {
		b.WriteByte('(')
		for i, p := range m.points {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(p.label)
			b.WriteByte('=')
			writeMillis(&b, p.elapsed)
		}
		b.WriteByte(')')
	}
	return b.String()
}

func (m *Metric) String() string { return m.Message() }

func writeMillis(b *strings.Builder, d time.Duration) {
	ms := float64(d.Nanoseconds()) / 1e6
	b.WriteString(strconv.FormatFloat(ms, 'f', 1, 64))
	b.WriteString("ms")
}
