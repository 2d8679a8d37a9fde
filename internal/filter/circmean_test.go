package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closedloop-vr/ballrig/pkg/core"
)

type fakeStore struct {
	values map[string]float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]float64{}}
}

func (f *fakeStore) GetFloat(key string, def float64) float64 {
	if v, ok := f.values[key]; ok {
		return v
	}
	return def
}

func (f *fakeStore) SetFloat(key string, value float64) error {
	f.values[key] = value
	return nil
}

type captureSink struct {
	events []core.HeadingEvent
}

func (c *captureSink) RecordHeadingEvent(e *core.HeadingEvent) error {
	c.events = append(c.events, *e)
	return nil
}

// angularDistance returns the smallest absolute difference between two
// headings in degrees.
func angularDistance(a, b float64) float64 {
	d := math.Abs(core.WrapDeg(a) - core.WrapDeg(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

func TestCircularMeanWraparound(t *testing.T) {
	c := NewCircularMean(8, "rig-agent", nil)
	c.Record(350)
	c.Record(10)

	// The mean of 350 and 10 is 0/360, never 180.
	assert.InDelta(t, 0, angularDistance(c.Mean(), 0), 1e-9)
}

func TestCircularMeanRotationInvariance(t *testing.T) {
	angles := []float64{12, 47, 310, 355, 181}

	base := NewCircularMean(8, "k", nil)
	for _, a := range angles {
		base.Record(a)
	}

	for _, offset := range []float64{30, 90, 270, 345} {
		shifted := NewCircularMean(8, "k", nil)
		for _, a := range angles {
			shifted.Record(core.WrapDeg(a + offset))
		}
		assert.InDelta(t, 0,
			angularDistance(shifted.Mean(), base.Mean()+offset), 1e-6,
			"offset %v", offset)
	}
}

func TestCircularMeanWindowEviction(t *testing.T) {
	c := NewCircularMean(2, "k", nil)
	c.Record(100)
	c.Record(200)
	c.Record(240)
	// 100 has been evicted; mean of {200, 240} is 220.
	assert.InDelta(t, 220, c.Mean(), 1e-9)
}

func TestCircularMeanRange(t *testing.T) {
	c := NewCircularMean(4, "k", nil)
	c.Record(350)
	c.Record(340)
	m := c.Mean()
	assert.GreaterOrEqual(t, m, 0.0)
	assert.Less(t, m, 360.0)
	assert.InDelta(t, 345, m, 1e-9)
}

func TestCircularMeanCacheInvalidation(t *testing.T) {
	c := NewCircularMean(4, "k", nil)
	c.Record(90)
	first := c.Mean()
	assert.InDelta(t, 90, first, 1e-9)

	// Cached result until a new sample lands.
	assert.Equal(t, first, c.Mean())

	c.Record(180)
	assert.InDelta(t, 135, c.Mean(), 1e-9)
}

func TestCircularMeanPersistence(t *testing.T) {
	kv := newFakeStore()
	sink := &captureSink{}

	first := NewCircularMean(8, HierarchyKey("rig1", "stage", "agent"), sink)
	first.Restore(kv)
	first.Record(40)
	first.Record(60)
	require.NoError(t, first.Persist(kv))

	// A fresh session restores the stored value and serves it until
	// accumulation begins.
	second := NewCircularMean(8, HierarchyKey("rig1", "stage", "agent"), sink)
	second.Restore(kv)
	assert.InDelta(t, 50, second.Mean(), 1e-9)

	second.Record(100)
	assert.InDelta(t, 100, second.Mean(), 1e-9)

	// Both persistence directions were logged with distinct kinds.
	kinds := []string{}
	for _, e := range sink.events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{
		core.HeadingRestored, core.HeadingStored, core.HeadingRestored,
	}, kinds)
	assert.Equal(t, "rig1-stage-agent", sink.events[0].Key)
}

func TestCircularMeanClear(t *testing.T) {
	kv := newFakeStore()
	kv.values["k"] = 123

	c := NewCircularMean(4, "k", nil)
	c.Restore(kv)
	c.Record(90)
	c.Clear()

	// After a clear with no new samples, the restored value applies again.
	assert.InDelta(t, 123, c.Mean(), 1e-9)
}
