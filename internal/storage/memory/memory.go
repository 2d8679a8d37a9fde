// Package memory implements the storage.Backend interface entirely in
// RAM, exporting the finished session as a (optionally gzipped) JSON
// file on EndSession. Useful for short calibration runs and for tests.
package memory

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/closedloop-vr/ballrig/pkg/core"
)

// Config holds configuration for the memory storage backend.
type Config struct {
	// OutputDir receives the exported session file.
	OutputDir string

	// CompressOutput gzips the export (.json.gz instead of .json).
	CompressOutput bool
}

// Backend stores session frames in memory and exports to JSON.
type Backend struct {
	cfg    Config
	logger *slog.Logger

	info          *core.SessionInfo
	pending       []core.FrameRecord
	frames        []core.FrameRecord
	headingEvents []core.HeadingEvent

	lastExportPath string
	mu             sync.Mutex
}

// New creates a new memory backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	return &Backend{cfg: cfg, logger: logger}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session.
func (b *Backend) StartSession(info *core.SessionInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.info = info
	b.pending = nil
	b.frames = nil
	b.headingEvents = nil
	b.lastExportPath = ""
	return nil
}

// EndSession finalizes and exports the session data.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.info == nil {
		return fmt.Errorf("no session in progress")
	}
	if b.info.EndTime.IsZero() {
		b.info.EndTime = time.Now()
	}

	b.frames = append(b.frames, b.pending...)
	b.pending = nil
	return b.exportJSON()
}

// RecordFrame buffers a frame record for the next Flush.
func (b *Backend) RecordFrame(r *core.FrameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, *r)
	return nil
}

// Flush commits buffered frames to the session trace.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frames = append(b.frames, b.pending...)
	b.pending = nil
	return nil
}

// BufferedFrames reports how many records await the next Flush.
func (b *Backend) BufferedFrames() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.pending)
}

// RecordHeadingEvent records a heading persistence event.
func (b *Backend) RecordHeadingEvent(e *core.HeadingEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.headingEvents = append(b.headingEvents, *e)
	return nil
}

// ExportedFilePath returns the path written by the last EndSession.
func (b *Backend) ExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.lastExportPath
}

// Frames returns a copy of the committed session trace.
func (b *Backend) Frames() []core.FrameRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.FrameRecord, len(b.frames))
	copy(out, b.frames)
	return out
}
