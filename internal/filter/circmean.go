package filter

import (
	"math"
	"strings"
	"time"

	"github.com/closedloop-vr/ballrig/pkg/core"
)

// FloatStore is the persistence port for the heading mean. The gorm
// implementation lives in internal/store; tests inject an in-memory fake.
type FloatStore interface {
	GetFloat(key string, def float64) float64
	SetFloat(key string, value float64) error
}

// HeadingEventSink receives the stored/restored persistence events as
// distinct record kinds. storage.Backend satisfies this.
type HeadingEventSink interface {
	RecordHeadingEvent(e *core.HeadingEvent) error
}

// HierarchyKey builds the persistence key from the agent's hierarchy
// path, root to leaf, joined with "-".
func HierarchyKey(parts ...string) string {
	return strings.Join(parts, "-")
}

// CircularMean accumulates a rolling window of heading samples in
// degrees and computes their circular mean. A plain arithmetic average
// would be wrong here: headings wrap at 360, and a window straddling the
// wrap (say 350 and 10) must average to ~0, not 180. The mean is cached
// and recomputed only when a new sample has been recorded.
//
// The mean survives sessions: Restore reads the previous session's value
// from the store, and Persist writes the current mean back at shutdown.
// Until the first sample of a session is recorded, Mean returns the
// restored value.
type CircularMean struct {
	samples []float64
	cursor  int
	count   int

	cached float64
	dirty  bool

	restored    float64
	hasRestored bool

	key  string
	sink HeadingEventSink
}

// NewCircularMean returns an accumulator over the last w heading
// samples, persisted under key. sink may be nil.
func NewCircularMean(w int, key string, sink HeadingEventSink) *CircularMean {
	if w <= 0 {
		w = 1
	}
	return &CircularMean{
		samples: make([]float64, w),
		key:     key,
		sink:    sink,
	}
}

// Record adds a heading sample in degrees, overwriting the oldest slot.
func (c *CircularMean) Record(angleDeg float64) {
	c.samples[c.cursor] = angleDeg
	c.cursor = (c.cursor + 1) % len(c.samples)
	if c.count < len(c.samples) {
		c.count++
	}
	c.dirty = true
}

// Mean returns the circular mean of the recorded samples, normalized
// into [0, 360). Before any sample has been recorded it returns the
// restored cross-session value, or 0 if none was restored.
func (c *CircularMean) Mean() float64 {
	if c.count == 0 {
		if c.hasRestored {
			return c.restored
		}
		return 0
	}
	if !c.dirty {
		return c.cached
	}

	var sinSum, cosSum float64
	for i := 0; i < c.count; i++ {
		rad := c.samples[i] * math.Pi / 180
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}
	n := float64(c.count)
	mean := math.Atan2(sinSum/n, cosSum/n) * 180 / math.Pi

	c.cached = core.WrapDeg(mean)
	c.dirty = false
	return c.cached
}

// Restore reads the persisted mean from a prior session. It must be
// called before any Record of the current session; once accumulation has
// begun the restored value is ignored.
func (c *CircularMean) Restore(kv FloatStore) {
	c.restored = kv.GetFloat(c.key, 0)
	c.hasRestored = true
	c.emit(core.HeadingRestored, c.restored)
}

// Persist writes the current mean to the store. Called once at session
// end.
func (c *CircularMean) Persist(kv FloatStore) error {
	mean := c.Mean()
	if err := kv.SetFloat(c.key, mean); err != nil {
		return err
	}
	c.emit(core.HeadingStored, mean)
	return nil
}

// Clear drops all recorded samples and the cached mean. The restored
// value is kept.
func (c *CircularMean) Clear() {
	for i := range c.samples {
		c.samples[i] = 0
	}
	c.cursor = 0
	c.count = 0
	c.dirty = false
	c.cached = 0
}

func (c *CircularMean) emit(kind string, value float64) {
	if c.sink == nil {
		return
	}
	// Sink failures must not break the accumulator; the sink logs its own
	// errors.
	_ = c.sink.RecordHeadingEvent(&core.HeadingEvent{
		Kind:     kind,
		Key:      c.key,
		ValueDeg: value,
		Time:     time.Now(),
	})
}
