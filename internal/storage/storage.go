// Package storage defines the session log collaborator: frames are
// buffered with RecordFrame and made durable in batches by Flush, on
// the schedule decided by the session scheduler.
package storage

import "github.com/closedloop-vr/ballrig/pkg/core"

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(info *core.SessionInfo) error
	EndSession() error

	// Frame recording. RecordFrame buffers; Flush writes the buffered
	// batch to durable storage. EndSession implies a final Flush.
	RecordFrame(r *core.FrameRecord) error
	Flush() error

	// BufferedFrames reports how many records await the next Flush.
	BufferedFrames() int

	// Heading-mean persistence events (stored/restored).
	RecordHeadingEvent(e *core.HeadingEvent) error
}

// Exportable is an optional interface for backends that produce a
// self-contained session file on EndSession.
type Exportable interface {
	ExportedFilePath() string
}
