// Package postgresstorage implements the storage.Backend interface on
// the shared lab Postgres instance, falling back to a local SQLite file
// when the server is unreachable (the database manager owns that
// fallback chain).
package postgresstorage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/closedloop-vr/ballrig/internal/database"
	gormstorage "github.com/closedloop-vr/ballrig/internal/storage/gorm"
)

// Backend wraps the GORM backend over a managed Postgres connection.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New connects via the database manager and wraps the result. The
// sqliteFallbackPath is used when Postgres is unreachable.
func New(dblog zerolog.Logger, logger *slog.Logger, sqliteFallbackPath string) (*Backend, error) {
	manager := database.NewManager(dblog)
	manager.SqliteFilePath = sqliteFallbackPath
	if err := manager.Connect(); err != nil {
		return nil, fmt.Errorf("connecting session database: %w", err)
	}

	if manager.ShouldSaveLocal {
		logger.Warn("Postgres unreachable, recording to local SQLite",
			"path", sqliteFallbackPath)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: manager.DB, Logger: logger}),
		manager: manager,
	}, nil
}

// SavingLocally reports whether the fallback SQLite path is in use.
func (b *Backend) SavingLocally() bool {
	return b.manager.ShouldSaveLocal
}
