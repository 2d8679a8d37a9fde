// Package gormstorage implements the storage.Backend interface on top
// of any GORM-connected database. The SQLite and Postgres backends wrap
// it via composition and add only their connection-specific concerns.
package gormstorage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/closedloop-vr/ballrig/internal/model"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

// Dependencies holds everything the backend needs.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend buffers frame records in memory and writes them in batches.
type Backend struct {
	db     *gorm.DB
	logger *slog.Logger

	mu      sync.Mutex
	session *model.Session
	pending []model.FrameRecord

	lastWriteDuration time.Duration
}

// New creates a backend over an open GORM connection.
func New(deps Dependencies) *Backend {
	return &Backend{
		db:     deps.DB,
		logger: deps.Logger,
	}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close flushes anything pending and closes the connection.
func (b *Backend) Close() error {
	if err := b.Flush(); err != nil {
		b.logger.Error("Flush on close failed", "error", err)
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartSession creates the session row and registers the rig if this
// database has not seen it before.
func (b *Backend) StartSession(info *core.SessionInfo) error {
	snapshot, err := json.Marshal(info.ConfigSnapshot)
	if err != nil {
		return fmt.Errorf("marshalling config snapshot: %w", err)
	}

	rig := model.RigInfo{RigName: info.RigName}
	if err := b.db.Where("rig_name = ?", info.RigName).FirstOrCreate(&rig).Error; err != nil {
		return fmt.Errorf("registering rig: %w", err)
	}

	session := model.Session{
		RigName:        info.RigName,
		StartTime:      info.StartTime,
		SiteWKT:        info.SiteWKT,
		ConfigSnapshot: datatypes.JSON(snapshot),
	}
	if err := b.db.Create(&session).Error; err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	b.mu.Lock()
	b.session = &session
	b.mu.Unlock()

	b.logger.Info("Session started", "sessionID", session.ID, "rig", info.RigName)
	return nil
}

// EndSession flushes pending frames and stamps the end time.
func (b *Backend) EndSession() error {
	if err := b.Flush(); err != nil {
		return err
	}

	b.mu.Lock()
	session := b.session
	b.mu.Unlock()
	if session == nil {
		return nil
	}

	err := b.db.Model(session).Update("end_time", time.Now()).Error
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	b.logger.Info("Session ended", "sessionID", session.ID)
	return nil
}

// RecordFrame buffers one frame record for the next Flush.
func (b *Backend) RecordFrame(r *core.FrameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return fmt.Errorf("no active session")
	}
	b.pending = append(b.pending, model.FrameFromCore(b.session.ID, r))
	return nil
}

// BufferedFrames returns the number of records awaiting Flush.
func (b *Backend) BufferedFrames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush writes the buffered batch. The buffer is kept on failure so a
// later flush can retry.
func (b *Backend) Flush() error {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	if err := b.db.Create(&batch).Error; err != nil {
		b.mu.Lock()
		b.pending = append(batch, b.pending...)
		b.mu.Unlock()
		return fmt.Errorf("writing %d frame records: %w", len(batch), err)
	}

	b.mu.Lock()
	b.lastWriteDuration = time.Since(start)
	b.mu.Unlock()

	b.logger.Debug("Flushed frame records",
		"count", len(batch), "duration", time.Since(start))
	return nil
}

// RecordHeadingEvent writes a persistence event row immediately; these
// are rare and must survive even if the session aborts.
func (b *Backend) RecordHeadingEvent(e *core.HeadingEvent) error {
	var sessionID uint
	b.mu.Lock()
	if b.session != nil {
		sessionID = b.session.ID
	}
	b.mu.Unlock()

	row := model.HeadingEventFromCore(sessionID, e)
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("writing heading event: %w", err)
	}
	return nil
}

// LastWriteDuration returns the duration of the most recent flush.
func (b *Backend) LastWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWriteDuration
}

// DB exposes the underlying connection for sibling components that
// share it, like the calibration store.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// SessionID returns the active session's row ID, or 0.
func (b *Backend) SessionID() uint {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return 0
	}
	return b.session.ID
}
