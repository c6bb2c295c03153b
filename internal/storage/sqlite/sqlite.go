// Package sqlitestorage keeps the conversion history in a local SQLite file.
// It wraps the GORM backend; the only SQLite-specific concern is opening and
// closing the database.
package sqlitestorage

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/animconv/internal/database"
	gormstorage "github.com/OCAP2/animconv/internal/storage/gorm"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path  string // empty keeps the history in memory
	RunID uuid.UUID
	Mode  string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg Config
}

// New opens the SQLite database.
func New(cfg Config, logger *slog.Logger, dbLog zerolog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path, dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     db,
			RunID:  cfg.RunID,
			Mode:   cfg.Mode,
			Logger: logger,
		}),
		db:  db,
		cfg: cfg,
	}, nil
}

// Close closes the embedded GORM backend and the database file.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
