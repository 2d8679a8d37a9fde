// Package database owns database connection bootstrapping. The rig
// prefers the shared lab Postgres instance and falls back to a local
// SQLite file (or an in-memory database with periodic disk dumps) when
// the lab server is unreachable.
package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager handles database connections and operations.
type Manager struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	SqliteFilePath  string
	Logger          zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect establishes a database connection, falling back to SQLite if
// Postgres fails.
func (m *Manager) Connect() error {
	var err error

	m.DB, err = m.GetPostgresDB()
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		m.ShouldSaveLocal = true
		m.DB, err = m.GetSqliteDB(m.SqliteFilePath)
		if err != nil || m.DB == nil {
			m.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		m.IsValid = true
	}

	// test connection
	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}

	err = m.SqlDB.Ping()
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to validate connection, trying SQLite")
		m.ShouldSaveLocal = true
		m.DB, err = m.GetSqliteDB(m.SqliteFilePath)
		if err != nil || m.DB == nil {
			m.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		m.IsValid = true
	} else {
		m.Logger.Info().Msg("Connected to database")
		m.IsValid = true
	}

	if !m.ShouldSaveLocal {
		m.SqlDB.SetMaxOpenConns(10)
	}

	return nil
}

// GetPostgresDB returns a connection to the Postgres database.
func (m *Manager) GetPostgresDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	m.Logger.Debug().Msgf("Connecting to Postgres DB at '%s:%s'",
		viper.GetString("db.host"), viper.GetString("db.port"))

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// GetSqliteDB returns a connection to a SQLite database. If path is
// empty, uses an in-memory database.
func (m *Manager) GetSqliteDB(path string) (*gorm.DB, error) {
	return GetSqliteDBStandalone(path)
}

// GetSqliteDBStandalone opens a SQLite database without a manager. An
// empty path opens a shared in-memory database.
func GetSqliteDBStandalone(path string) (*gorm.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dsn = path
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// DumpMemoryDBToDisk snapshots an in-memory SQLite database to path via
// VACUUM INTO. VACUUM INTO is a point-in-time copy, so writers need not
// pause.
func DumpMemoryDBToDisk(db *gorm.DB, path string) error {
	if path == "" {
		return fmt.Errorf("no dump path configured")
	}
	tmp := path + ".tmp"
	if err := db.Exec("VACUUM INTO ?", tmp).Error; err != nil {
		return fmt.Errorf("vacuum into %q: %w", tmp, err)
	}
	return renameFile(tmp, path)
}

// SessionDBPath names the per-session SQLite file inside dir.
func SessionDBPath(dir, appName string, start time.Time) string {
	return filepath.Join(dir,
		fmt.Sprintf("%s_%s.db", appName, start.Format("20060102_150405")))
}
