// Package gormstorage keeps a conversion history in any GORM database.
// The sqlite and postgres backends embed it and only differ in how the
// connection is opened.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/OCAP2/animconv/internal/model"
	"github.com/OCAP2/animconv/internal/model/convert"
	"github.com/OCAP2/animconv/pkg/core"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	RunID  uuid.UUID
	Mode   string
	Logger *slog.Logger
}

// Backend writes every conversion and failure of a run as one row.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and registers the run.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("no database connection")
	}

	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	hostname, _ := os.Hostname()
	run := model.ConversionRun{
		RunID:     b.deps.RunID.String(),
		StartedAt: time.Now(),
		Hostname:  hostname,
		Mode:      b.deps.Mode,
	}
	if err := b.deps.DB.Create(&run).Error; err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	b.dbReady = true
	return nil
}

func (b *Backend) setupDB() error {
	log := b.deps.Logger

	log.Debug("Migrating schema", "dialect", b.deps.DB.Name())
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Debug("Database setup complete")
	return nil
}

// Close marks the backend unusable. The connection is owned by the caller.
func (b *Backend) Close() error {
	b.dbReady = false
	return nil
}

// StoreAnimation inserts a history row for a converted file.
func (b *Backend) StoreAnimation(a *core.ConvertedAnimation) error {
	if !b.dbReady {
		return nil
	}

	rec := convert.CoreToConversionRecord(*a)
	if err := b.deps.DB.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert conversion record: %w", err)
	}
	return nil
}

// RecordFailure inserts a failure row.
func (b *Backend) RecordFailure(f *core.ConversionFailure) error {
	if !b.dbReady {
		return nil
	}

	row := convert.CoreToConversionFailure(*f)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert conversion failure: %w", err)
	}
	return nil
}

// Recent returns the latest conversions across all runs, newest first.
func (b *Backend) Recent(limit int) ([]core.ConvertedAnimation, error) {
	if b.deps.DB == nil {
		return nil, errors.New("no database connection")
	}

	var rows []model.ConversionRecord
	err := b.deps.DB.
		Order("converted_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	out := make([]core.ConvertedAnimation, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.ConversionRecordToCore(r))
	}
	return out, nil
}

// LatestFor returns the most recent successful conversion of source.
func (b *Backend) LatestFor(source string) (core.ConvertedAnimation, error) {
	if b.deps.DB == nil {
		return core.ConvertedAnimation{}, errors.New("no database connection")
	}

	var row model.ConversionRecord
	err := b.deps.DB.
		Where("source = ?", source).
		Order("converted_at DESC").
		Order("id DESC").
		First(&row).Error
	if err != nil {
		return core.ConvertedAnimation{}, err
	}
	return convert.ConversionRecordToCore(row), nil
}

// Failures returns the failures recorded for a run.
func (b *Backend) Failures(runID uuid.UUID) ([]core.ConversionFailure, error) {
	if b.deps.DB == nil {
		return nil, errors.New("no database connection")
	}

	var rows []model.ConversionFailure
	if err := b.deps.DB.Where("run_id = ?", runID.String()).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}

	out := make([]core.ConversionFailure, 0, len(rows))
	for _, r := range rows {
		id, _ := uuid.Parse(r.RunID)
		out = append(out, core.ConversionFailure{
			RunID:    id,
			Source:   r.Source,
			Reason:   r.Reason,
			FailedAt: r.FailedAt,
		})
	}
	return out, nil
}
