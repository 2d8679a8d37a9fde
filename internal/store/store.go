// Package store persists calibration floats across sessions. The
// heading accumulator restores its mean from here on startup and writes
// it back on shutdown and on session rollover.
package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/closedloop-vr/ballrig/internal/model"
)

// Calib is a calibration key/value store over the session database.
type Calib struct {
	db *gorm.DB
}

// NewCalib wraps an open GORM connection. The calib_values table is
// migrated by the storage backend's Init.
func NewCalib(db *gorm.DB) *Calib {
	return &Calib{db: db}
}

// GetFloat returns the stored value for key, or def when absent.
func (c *Calib) GetFloat(key string, def float64) float64 {
	var row model.CalibValue
	err := c.db.First(&row, "key = ?", key).Error
	if err != nil {
		return def
	}
	return row.Value
}

// SetFloat upserts the value for key.
func (c *Calib) SetFloat(key string, value float64) error {
	row := model.CalibValue{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upserting calib value %q: %w", key, err)
	}
	return nil
}
