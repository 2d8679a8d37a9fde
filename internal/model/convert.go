package model

import "github.com/closedloop-vr/ballrig/pkg/core"

// FrameFromCore maps a core frame record onto its database row.
func FrameFromCore(sessionID uint, r *core.FrameRecord) FrameRecord {
	return FrameRecord{
		SessionID:        sessionID,
		Frame:            r.Frame,
		AttemptedX:       r.Attempted.X,
		AttemptedY:       r.Attempted.Y,
		AttemptedZ:       r.Attempted.Z,
		ActualX:          r.Actual.X,
		ActualY:          r.Actual.Y,
		ActualZ:          r.Actual.Z,
		RotationDeltaDeg: r.RotationDeltaDeg,
		PosX:             r.Pose.Position.X,
		PosY:             r.Pose.Position.Y,
		PosZ:             r.Pose.Position.Z,
		RotX:             r.Pose.Rotation.X,
		RotY:             r.Pose.Rotation.Y,
		RotZ:             r.Pose.Rotation.Z,
		Gated:            r.Gated,
		ReadMs:           r.ReadMs,
		WriteMs:          r.WriteMs,
	}
}

// FrameToCore maps a database row back to the core record used during
// replay.
func (f *FrameRecord) FrameToCore() core.FrameRecord {
	return core.FrameRecord{
		Frame:            f.Frame,
		Attempted:        core.Vec3{X: f.AttemptedX, Y: f.AttemptedY, Z: f.AttemptedZ},
		Actual:           core.Vec3{X: f.ActualX, Y: f.ActualY, Z: f.ActualZ},
		RotationDeltaDeg: f.RotationDeltaDeg,
		Pose: core.Pose{
			Position: core.Vec3{X: f.PosX, Y: f.PosY, Z: f.PosZ},
			Rotation: core.Vec3{X: f.RotX, Y: f.RotY, Z: f.RotZ},
		},
		Gated:   f.Gated,
		ReadMs:  f.ReadMs,
		WriteMs: f.WriteMs,
	}
}

// HeadingEventFromCore maps a heading persistence event onto its row.
func HeadingEventFromCore(sessionID uint, e *core.HeadingEvent) HeadingEvent {
	return HeadingEvent{
		SessionID: sessionID,
		Kind:      e.Kind,
		Key:       e.Key,
		ValueDeg:  e.ValueDeg,
		Time:      e.Time,
	}
}
