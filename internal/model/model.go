// Package model defines the database schema for recorded sessions.
// Conversion from the plain pkg/core types lives in convert.go so the
// core never links against GORM.
package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists every table migrated on startup.
var DatabaseModels = []interface{}{
	&RigInfo{},
	&Session{},
	&FrameRecord{},
	&HeadingEvent{},
	&CalibValue{},
}

// RigInfo holds one-time information about the rig installation.
type RigInfo struct {
	gorm.Model
	RigName     string `json:"rigName" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
}

func (*RigInfo) TableName() string {
	return "rig_infos"
}

// Session is one recording session of the rig.
type Session struct {
	gorm.Model
	RigName   string    `json:"rigName" gorm:"size:127;index"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// SiteWKT is the rig's lab location as an EPSG:3857 WKT point.
	SiteWKT string `json:"siteWkt" gorm:"size:255"`

	// ConfigSnapshot is the full configuration the session ran with.
	ConfigSnapshot datatypes.JSON `json:"configSnapshot"`
}

func (*Session) TableName() string {
	return "sessions"
}

// FrameRecord is one frame's recorded transformation.
type FrameRecord struct {
	ID        uint    `json:"id" gorm:"primarykey"`
	SessionID uint    `json:"sessionId" gorm:"index:idx_framerecords_session_frame"`
	Session   Session `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID"`

	Frame int64 `json:"frame" gorm:"index:idx_framerecords_session_frame"`

	AttemptedX float64 `json:"attemptedX"`
	AttemptedY float64 `json:"attemptedY"`
	AttemptedZ float64 `json:"attemptedZ"`

	ActualX float64 `json:"actualX"`
	ActualY float64 `json:"actualY"`
	ActualZ float64 `json:"actualZ"`

	RotationDeltaDeg float64 `json:"rotationDeltaDeg"`

	PosX float64 `json:"posX"`
	PosY float64 `json:"posY"`
	PosZ float64 `json:"posZ"`
	RotX float64 `json:"rotX"`
	RotY float64 `json:"rotY"`
	RotZ float64 `json:"rotZ"`

	Gated bool `json:"gated"`

	ReadMs  int64 `json:"readMs"`
	WriteMs int64 `json:"writeMs"`
}

func (*FrameRecord) TableName() string {
	return "frame_records"
}

// HeadingEvent records a heading-mean persistence event (stored or
// restored), keyed by the agent's hierarchy path.
type HeadingEvent struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	SessionID uint      `json:"sessionId" gorm:"index"`
	Kind      string    `json:"kind" gorm:"size:15"`
	Key       string    `json:"key" gorm:"size:255"`
	ValueDeg  float64   `json:"valueDeg"`
	Time      time.Time `json:"time"`
}

func (*HeadingEvent) TableName() string {
	return "heading_events"
}

// CalibValue is one persisted calibration float, shared across
// sessions. The cross-session heading mean lives here.
type CalibValue struct {
	Key       string    `json:"key" gorm:"primarykey;size:255"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (*CalibValue) TableName() string {
	return "calib_values"
}
