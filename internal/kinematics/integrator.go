// Package kinematics turns decoded motion samples into pose updates.
// The integrator owns the agent's authoritative pose while the rig runs
// live; during playback the session scheduler writes the pose instead,
// never both in the same frame.
package kinematics

import (
	"github.com/closedloop-vr/ballrig/internal/filter"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

// GateReader is the angular-speed gate consumed by the smoothed
// variant. The integrator only ever reads it; updating the gate is the
// caller's job.
type GateReader interface {
	Speed() float64
	Threshold() float64
}

// CollisionCorrector turns an attempted translation into the actual one
// after sliding-contact correction. The sensor-driven rig has no
// collision geometry, so it is usually nil and actual == attempted.
type CollisionCorrector interface {
	Translate(attempted core.Vec3) core.Vec3
}

// Integrator applies motion samples to the pose. Two variants exist:
//
//   - Direct: every sample is applied as-is; lowest latency.
//   - Smoothed: samples pass an angular-speed gate, and translations are
//     averaged over a ring window before they reach the pose. Samples
//     rejected by the gate are still reported for logging, flagged Gated.
type Integrator struct {
	pose      core.Pose
	gain      float64
	smoother  *filter.Smoother
	gate      GateReader
	corrector CollisionCorrector
}

// NewDirect returns the unsmoothed, ungated variant.
func NewDirect(gain float64) *Integrator {
	return &Integrator{gain: gain}
}

// NewSmoothed returns the smoothed, gated variant.
func NewSmoothed(gain float64, smoother *filter.Smoother, gate GateReader) *Integrator {
	return &Integrator{gain: gain, smoother: smoother, gate: gate}
}

// SetCorrector installs a collision corrector for attempted
// translations.
func (it *Integrator) SetCorrector(c CollisionCorrector) {
	it.corrector = c
}

// Pose returns the current pose.
func (it *Integrator) Pose() core.Pose {
	return it.pose
}

// SetPose overwrites the pose. Used by playback and by scripted
// behavior windows.
func (it *Integrator) SetPose(p core.Pose) {
	it.pose = p
}

// SetHeading overwrites only the heading, in degrees.
func (it *Integrator) SetHeading(deg float64) {
	it.pose.Rotation.Y = core.WrapDeg(deg)
}

// ApplyTranslation applies a body-frame translation to the pose and
// returns the actual translation after collision correction.
func (it *Integrator) ApplyTranslation(local core.Vec3) core.Vec3 {
	actual := local
	if it.corrector != nil {
		actual = it.corrector.Translate(local)
	}
	it.pose.Translate(actual)
	return actual
}

// ApplyRotation applies a heading delta in degrees.
func (it *Integrator) ApplyRotation(deltaDeg float64) {
	it.pose.Rotate(deltaDeg)
}

// Observe builds the diagnostic record for a sample that must not drive
// the pose, such as during a scripted behavior window. Ground truth is
// kept in the log, flagged Gated so replay skips it. Returns nil for
// zero-motion samples, same as Integrate.
func (it *Integrator) Observe(s core.MotionSample, frame int64) *core.FrameRecord {
	attempted := core.Vec3{X: s.Forward, Z: s.Sideways}.Scale(it.gain)
	rotDelta := -s.HeadingDeltaDeg
	if attempted.IsZero() && rotDelta == 0 {
		return nil
	}
	return &core.FrameRecord{
		Frame:            frame,
		Attempted:        attempted,
		RotationDeltaDeg: rotDelta,
		Gated:            true,
		Pose:             it.pose,
		ReadMs:           s.ReadMs,
		WriteMs:          s.WriteMs,
	}
}

// Integrate consumes one motion sample. It returns a frame record for
// logging and whether the sample actually drove the pose. The record is
// nil when the sample carries no motion at all; no motion, no log
// entry. A non-nil record with applied == false is a gated sample: kept
// for diagnostics, excluded from the pose.
func (it *Integrator) Integrate(s core.MotionSample, frame int64) (*core.FrameRecord, bool) {
	attempted := core.Vec3{X: s.Forward, Z: s.Sideways}.Scale(it.gain)
	// Sensor heading grows clockwise, scene heading counter-clockwise.
	rotDelta := -s.HeadingDeltaDeg

	if attempted.IsZero() && rotDelta == 0 {
		return nil, false
	}

	rec := &core.FrameRecord{
		Frame:            frame,
		Attempted:        attempted,
		RotationDeltaDeg: rotDelta,
		ReadMs:           s.ReadMs,
		WriteMs:          s.WriteMs,
	}

	if it.gate != nil && it.gate.Speed() >= it.gate.Threshold() {
		// Free spin: log the sample but keep it out of the pose.
		rec.Gated = true
		rec.Pose = it.pose
		return rec, false
	}

	applied := attempted
	if it.smoother != nil {
		it.smoother.Record(attempted)
		applied = it.smoother.Average()
	}

	rec.Actual = it.ApplyTranslation(applied)
	it.ApplyRotation(rotDelta)
	rec.Pose = it.pose

	return rec, true
}
