// Package filter holds the windowed filters applied to sensor motion:
// a fixed-size ring smoother for translation/rotation deltas and a
// circular-mean accumulator for heading angles.
package filter

import "github.com/closedloop-vr/ballrig/pkg/core"

// Smoother keeps the last K motion deltas in a fixed ring and exposes
// their running arithmetic mean. Record is O(1), Average is O(K).
//
// Slots start zeroed and are included in the mean before the window has
// filled, so early output is biased toward zero. That matches the rig's
// historical behavior and is deliberately not special-cased.
type Smoother struct {
	samples []core.Vec3
	cursor  int
}

// NewSmoother returns a smoother over the last k samples. k must be > 0.
func NewSmoother(k int) *Smoother {
	if k <= 0 {
		k = 1
	}
	return &Smoother{samples: make([]core.Vec3, k)}
}

// Record overwrites the oldest slot with delta.
func (s *Smoother) Record(delta core.Vec3) {
	s.samples[s.cursor] = delta
	s.cursor = (s.cursor + 1) % len(s.samples)
}

// Average returns the arithmetic mean over all K slots.
func (s *Smoother) Average() core.Vec3 {
	var sum core.Vec3
	for _, v := range s.samples {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(s.samples)))
}

// Window returns the smoother's capacity K.
func (s *Smoother) Window() int {
	return len(s.samples)
}
