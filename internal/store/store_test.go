package store

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/closedloop-vr/ballrig/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.CalibValue{}))
	return db
}

func TestGetFloatDefault(t *testing.T) {
	c := NewCalib(testDB(t))
	assert.Equal(t, 42.5, c.GetFloat("missing", 42.5))
}

func TestSetGetRoundTrip(t *testing.T) {
	c := NewCalib(testDB(t))
	require.NoError(t, c.SetFloat("rig1-lab-agent", 181.25))
	assert.Equal(t, 181.25, c.GetFloat("rig1-lab-agent", 0))
}

func TestSetOverwrites(t *testing.T) {
	c := NewCalib(testDB(t))
	require.NoError(t, c.SetFloat("k", 1))
	require.NoError(t, c.SetFloat("k", 2))
	assert.Equal(t, 2.0, c.GetFloat("k", 0))

	var count int64
	require.NoError(t, c.db.Model(&model.CalibValue{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
