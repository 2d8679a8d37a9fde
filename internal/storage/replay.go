package storage

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/closedloop-vr/ballrig/internal/model"
	"github.com/closedloop-vr/ballrig/internal/storage/memory"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

// ReadFrames loads a prior session's frame trace for replay. The format
// is picked by extension: .json / .json.gz are memory-backend exports,
// .db is a SQLite session database. Frames come back ordered by frame
// number.
func ReadFrames(path string) ([]core.FrameRecord, error) {
	switch {
	case strings.HasSuffix(path, ".json"), strings.HasSuffix(path, ".json.gz"):
		export, err := memory.ReadExport(path)
		if err != nil {
			return nil, err
		}
		return export.Frames, nil
	case strings.HasSuffix(path, ".db"):
		return readSqliteFrames(path)
	default:
		return nil, fmt.Errorf("unrecognized session file %q (want .db, .json or .json.gz)", path)
	}
}

func readSqliteFrames(path string) ([]core.FrameRecord, error) {
	db, err := gorm.Open(sqlite.Open(path+"?mode=ro"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	// Replay the most recent session in the file.
	var session model.Session
	if err := db.Order("id DESC").First(&session).Error; err != nil {
		return nil, fmt.Errorf("reading session row: %w", err)
	}

	var rows []model.FrameRecord
	err = db.Where("session_id = ?", session.ID).Order("frame ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reading frame records: %w", err)
	}

	frames := make([]core.FrameRecord, len(rows))
	for i := range rows {
		frames[i] = rows[i].FrameToCore()
	}
	return frames, nil
}
