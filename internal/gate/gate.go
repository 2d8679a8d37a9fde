// Package gate estimates the agent's angular speed and exposes a
// threshold test. The integrator uses it to exclude free-spin ("slip")
// periods from the authoritative heading: when the ball spins faster
// than the threshold, samples are logged but not applied.
package gate

import "math"

// Gate tracks a smoothed angular speed in degrees per second.
type Gate struct {
	threshold float64
	alpha     float64

	speed       float64
	lastHeading float64
	hasHeading  bool
}

// New returns a gate with the given threshold in deg/s. alpha is the
// exponential smoothing factor in (0, 1]; 1 disables smoothing.
func New(threshold, alpha float64) *Gate {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return &Gate{threshold: threshold, alpha: alpha}
}

// UpdateRelative feeds a heading delta in degrees over dt seconds.
func (g *Gate) UpdateRelative(deltaDeg, dt float64) {
	if dt <= 0 {
		return
	}
	g.observe(math.Abs(deltaDeg) / dt)
}

// UpdateAbsolute feeds an absolute heading in degrees at dt seconds
// after the previous one. The first call only seeds the reference.
func (g *Gate) UpdateAbsolute(headingDeg, dt float64) {
	if !g.hasHeading {
		g.lastHeading = headingDeg
		g.hasHeading = true
		return
	}
	delta := shortestArc(headingDeg - g.lastHeading)
	g.lastHeading = headingDeg
	g.UpdateRelative(delta, dt)
}

// Speed returns the current angular speed estimate in deg/s.
func (g *Gate) Speed() float64 {
	return g.speed
}

// Threshold returns the configured gate threshold in deg/s.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Open reports whether motion is below threshold and may drive the pose.
func (g *Gate) Open() bool {
	return g.speed < g.threshold
}

func (g *Gate) observe(speed float64) {
	g.speed = g.alpha*speed + (1-g.alpha)*g.speed
}

// shortestArc maps a heading difference onto (-180, 180].
func shortestArc(deg float64) float64 {
	deg = math.Mod(deg, 360)
	switch {
	case deg > 180:
		deg -= 360
	case deg <= -180:
		deg += 360
	}
	return deg
}
