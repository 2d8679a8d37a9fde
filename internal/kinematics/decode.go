package kinematics

import (
	"math"

	"github.com/closedloop-vr/ballrig/internal/parse"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

// SampleDecoder extracts a MotionSample from one raw sensor message.
// Field positions follow the sensor's delimited wire format and are
// configurable because firmware revisions have shuffled them before.
type SampleDecoder struct {
	Sep byte

	FieldForward   int
	FieldSideways  int
	FieldHeading   int
	FieldTimestamp int // -1 when the sensor carries no timestamp field

	// BallRadius converts the sensor's rotation deltas into scene
	// displacement: forward motion spans the ball diameter, sideways
	// motion half the radius. Heading arrives in radians.
	BallRadius float64
}

// Decode parses msg into a motion sample. ok is false for malformed or
// truncated messages; the caller drops the message and waits for the
// next one.
func (d *SampleDecoder) Decode(msg []byte, readMs int64) (core.MotionSample, bool) {
	var s core.MotionSample

	fwd, ok := parse.Float64(msg, d.Sep, 0, d.FieldForward)
	if !ok {
		return s, false
	}
	side, ok := parse.Float64(msg, d.Sep, 0, d.FieldSideways)
	if !ok {
		return s, false
	}
	heading, ok := parse.Float64(msg, d.Sep, 0, d.FieldHeading)
	if !ok {
		return s, false
	}

	s.Forward = fwd * 2 * d.BallRadius
	s.Sideways = side * d.BallRadius / 2
	s.HeadingDeltaDeg = heading * 180 / math.Pi
	s.ReadMs = readMs

	if d.FieldTimestamp >= 0 {
		// The sensor timestamp is optional metadata; its absence does
		// not invalidate the sample.
		if ts, ok := parse.Int64(msg, d.Sep, 0, d.FieldTimestamp); ok {
			s.WriteMs = ts
		}
	}

	return s, true
}
