// Package core holds the plain domain types shared between the rig core,
// the storage backends and the host application. These carry no GORM or
// transport concerns; database mapping lives in internal/model.
package core

import (
	"math"
	"time"
)

// Vec3 is a right-handed world-space vector. Y is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// RotateY returns v rotated about the vertical axis by deg degrees,
// counter-clockwise when viewed from above.
func (v Vec3) RotateY(deg float64) Vec3 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// WrapDeg normalizes an angle in degrees into [0, 360).
func WrapDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Pose is the agent's authoritative transform. Rotation is in degrees;
// Rotation.Y is the heading about the vertical axis and wraps at 360.
type Pose struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
}

// Translate applies a body-frame translation, rotated into the world
// frame by the current heading.
func (p *Pose) Translate(local Vec3) {
	p.Position = p.Position.Add(local.RotateY(p.Rotation.Y))
}

// Rotate applies a heading delta in degrees.
func (p *Pose) Rotate(deltaYDeg float64) {
	p.Rotation.Y = WrapDeg(p.Rotation.Y + deltaYDeg)
}

// MotionSample is one decoded sensor report. Forward and Sideways are
// body-frame displacements already scaled by the ball geometry;
// HeadingDeltaDeg follows the sensor convention (clockwise-positive).
type MotionSample struct {
	Forward         float64
	Sideways        float64
	HeadingDeltaDeg float64

	// ReadMs is when the transport handed us the message; WriteMs is the
	// sensor-side timestamp carried inside the message.
	ReadMs  int64
	WriteMs int64
}

// FrameRecord is one frame's recorded transformation. Attempted is the
// translation the integrator asked for, Actual what survived correction;
// without a collision corrector the two are equal.
type FrameRecord struct {
	Frame            int64   `json:"frame"`
	Attempted        Vec3    `json:"attempted"`
	Actual           Vec3    `json:"actual"`
	RotationDeltaDeg float64 `json:"rotationDeltaDeg"`
	Pose             Pose    `json:"pose"`

	// Gated marks samples excluded from the pose by the angular-speed
	// gate or by a scripted behavior window. They are kept in the log as
	// ground truth but must not drive replay.
	Gated bool `json:"gated,omitempty"`

	ReadMs  int64 `json:"readMs,omitempty"`
	WriteMs int64 `json:"writeMs,omitempty"`
}

// HasMotion reports whether the record carries any applied translation
// or rotation. Gated records never count as motion.
func (r *FrameRecord) HasMotion() bool {
	return !r.Gated && (!r.Attempted.IsZero() || r.RotationDeltaDeg != 0)
}

// Heading event kinds. Stored is written when a session persists its
// circular heading mean, Restored when a later session reads it back.
const (
	HeadingStored   = "stored"
	HeadingRestored = "restored"
)

// HeadingEvent records a cross-session heading-mean persistence event.
type HeadingEvent struct {
	Kind     string    `json:"kind"`
	Key      string    `json:"key"`
	ValueDeg float64   `json:"valueDeg"`
	Time     time.Time `json:"time"`
}

// SessionInfo describes one recording session.
type SessionInfo struct {
	RigName   string    `json:"rigName"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime,omitempty"`

	// SiteWKT is the rig's lab location projected to EPSG:3857,
	// serialized as WKT. Empty when no site is configured.
	SiteWKT string `json:"siteWkt,omitempty"`

	// ConfigSnapshot is the full viper configuration at session start.
	ConfigSnapshot map[string]any `json:"configSnapshot,omitempty"`
}
