// Package sqlitestorage implements the storage.Backend interface using
// a local SQLite database. By default each session writes its own .db
// file under the logs directory; with an empty path it runs in memory
// with periodic disk dumps via VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/closedloop-vr/ballrig/internal/database"
	gormstorage "github.com/closedloop-vr/ballrig/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	// Path of the session database file. Empty runs in memory.
	Path string

	// DumpInterval and DumpPath control periodic disk dumps of an
	// in-memory database. Ignored when Path is set.
	DumpInterval time.Duration
	DumpPath     string
}

// Backend wraps the GORM backend with SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg      Config
	logger   *slog.Logger
	stopChan chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend:  gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump
// goroutine for in-memory databases.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.Path == "" && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, writes a final disk dump for
// in-memory databases and closes the embedded backend. Without the
// final dump everything since the last periodic tick would vanish with
// the process.
func (b *Backend) Close() error {
	close(b.stopChan)

	var dumpErr error
	if b.cfg.Path == "" && b.cfg.DumpPath != "" {
		if err := b.Flush(); err != nil {
			b.logger.Error("Flush before final dump failed", "error", err)
		}
		if dumpErr = database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); dumpErr != nil {
			dumpErr = fmt.Errorf("final session dump: %w", dumpErr)
		}
	}

	if err := b.Backend.Close(); err != nil && dumpErr == nil {
		return err
	}
	return dumpErr
}

// ExportedFilePath returns the on-disk session database.
func (b *Backend) ExportedFilePath() string {
	if b.cfg.Path != "" {
		return b.cfg.Path
	}
	return b.cfg.DumpPath
}

func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
				b.logger.Error("Dumping session DB to disk failed", "error", err)
			} else {
				b.logger.Debug("Dumped session DB to disk", "duration", time.Since(start))
			}
		}
	}
}
