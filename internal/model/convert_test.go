package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/closedloop-vr/ballrig/pkg/core"
)

func TestFrameRoundTrip(t *testing.T) {
	in := core.FrameRecord{
		Frame:            42,
		Attempted:        core.Vec3{X: 1, Y: 0, Z: 0.5},
		Actual:           core.Vec3{X: 0.9, Y: 0, Z: 0.4},
		RotationDeltaDeg: -5.7,
		Pose: core.Pose{
			Position: core.Vec3{X: 10, Y: 0, Z: -3},
			Rotation: core.Vec3{Y: 271.5},
		},
		Gated:   true,
		ReadMs:  1000,
		WriteMs: 990,
	}

	row := FrameFromCore(7, &in)
	assert.Equal(t, uint(7), row.SessionID)

	out := row.FrameToCore()
	assert.Equal(t, in, out)
}
