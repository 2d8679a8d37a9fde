package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/closedloop-vr/ballrig/internal/config"
	"github.com/closedloop-vr/ballrig/internal/storage/memory"
	postgresstorage "github.com/closedloop-vr/ballrig/internal/storage/postgres"
	sqlitestorage "github.com/closedloop-vr/ballrig/internal/storage/sqlite"
)

// Deps carries the collaborators backends need beyond their config
// section. SessionDBPath is where an in-memory SQLite session dumps to
// disk, and where Postgres falls back when the server is unreachable.
type Deps struct {
	Logger        *slog.Logger
	DBLog         zerolog.Logger
	SessionDBPath string
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, deps Deps) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgresstorage.New(deps.DBLog, deps.Logger, deps.SessionDBPath)
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     deps.SessionDBPath,
		}, deps.Logger)
	case "memory":
		return memory.New(memory.Config{
			OutputDir:      cfg.Memory.OutputDir,
			CompressOutput: cfg.Memory.CompressOutput,
		}, deps.Logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
