package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/closedloop-vr/ballrig/pkg/core"
)

func TestSmootherAverageAfterFill(t *testing.T) {
	s := NewSmoother(4)
	samples := []core.Vec3{
		{X: 1}, {X: 2}, {X: 3}, {X: 4},
	}
	for _, v := range samples {
		s.Record(v)
	}
	assert.InDelta(t, 2.5, s.Average().X, 1e-12)

	// A fifth sample evicts the oldest: mean of {2,3,4,5}.
	s.Record(core.Vec3{X: 5})
	assert.InDelta(t, 3.5, s.Average().X, 1e-12)
}

func TestSmootherPreFillBias(t *testing.T) {
	// Zero-initialized slots participate in the mean before the window
	// fills. One sample of 4 over a window of 4 averages to 1.
	s := NewSmoother(4)
	s.Record(core.Vec3{X: 4})
	assert.InDelta(t, 1.0, s.Average().X, 1e-12)
}

func TestSmootherAllComponents(t *testing.T) {
	s := NewSmoother(2)
	s.Record(core.Vec3{X: 1, Y: 2, Z: 3})
	s.Record(core.Vec3{X: 3, Y: 4, Z: 5})
	avg := s.Average()
	assert.InDelta(t, 2, avg.X, 1e-12)
	assert.InDelta(t, 3, avg.Y, 1e-12)
	assert.InDelta(t, 4, avg.Z, 1e-12)
}
