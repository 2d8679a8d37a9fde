// Package behavior implements the timed slip protocol: the rig
// alternates between sensor-driven motion and scripted open-loop
// rotation, reversing rotation direction on every scripted bout. The
// scripted windows probe how the agent corrects a forced visual
// rotation while its own motion is ignored.
package behavior

import "github.com/closedloop-vr/ballrig/pkg/core"

// State identifies the current protocol block.
type State int

const (
	// Primary is the sensor-driven block.
	Primary State = iota
	// Secondary is the scripted open-loop rotation block.
	Secondary
)

func (s State) String() string {
	if s == Secondary {
		return "secondary"
	}
	return "primary"
}

// Config holds the block timing. Durations are in seconds, the rate in
// degrees per second.
type Config struct {
	PrimaryDuration   float64
	SecondaryDuration float64
	RotationRate      float64
}

// Machine runs the primary/secondary block timer. It is ticked once per
// frame with the frame duration and the current pose heading.
type Machine struct {
	cfg Config

	state            State
	elapsed          float64
	secondaryElapsed float64
	direction        float64
	headingAtEntry   float64
}

// New returns a machine starting in Primary with direction +1.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, direction: 1}
}

// State returns the current block.
func (m *Machine) State() State {
	return m.state
}

// Direction returns the scripted rotation direction, +1 or -1.
func (m *Machine) Direction() float64 {
	return m.direction
}

// Tick advances the block timers by dt seconds. currentHeading is the
// pose heading in degrees, sampled when a secondary block begins. When
// the machine is in a scripted window it returns the open-loop heading
// and true; sensor integration must then be suppressed for this frame
// (messages are still drained and logged).
func (m *Machine) Tick(dt float64, currentHeading float64) (slipHeading float64, scripted bool) {
	switch m.state {
	case Primary:
		m.elapsed += dt
		if m.elapsed <= m.cfg.PrimaryDuration {
			return 0, false
		}
		m.state = Secondary
		m.headingAtEntry = currentHeading
		m.secondaryElapsed = 0
		fallthrough

	case Secondary:
		m.secondaryElapsed += dt
		heading := core.WrapDeg(
			m.headingAtEntry + m.direction*m.cfg.RotationRate*m.secondaryElapsed)
		if m.secondaryElapsed > m.cfg.SecondaryDuration {
			// Block complete: reverse direction and rearm the timers.
			m.direction = -m.direction
			m.elapsed = 0
			m.secondaryElapsed = 0
			m.state = Primary
		}
		return heading, true
	}
	return 0, false
}
