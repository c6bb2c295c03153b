// Package postgres keeps the conversion history in PostgreSQL. Rows are
// queued and written in batches by a background goroutine.
package postgres

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/animconv/internal/config"
	"github.com/OCAP2/animconv/internal/database"
	"github.com/OCAP2/animconv/internal/model"
	"github.com/OCAP2/animconv/internal/model/convert"
	"github.com/OCAP2/animconv/internal/queue"
	gormstorage "github.com/OCAP2/animconv/internal/storage/gorm"
	"github.com/OCAP2/animconv/pkg/core"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued rows are written.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the Postgres storage backend.
// DB may be injected; otherwise Init connects using Config.
type Dependencies struct {
	DB            *gorm.DB
	Config        config.DBConfig
	RunID         uuid.UUID
	Mode          string
	FlushInterval time.Duration
	Logger        *slog.Logger
	DBLog         zerolog.Logger
}

// Backend writes history rows through queues.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies

	records  *queue.Queue[model.ConversionRecord]
	failures *queue.Queue[model.ConversionFailure]

	stopChan chan struct{}
	wg       sync.WaitGroup
	ownsDB   bool
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:     deps,
		records:  queue.New[model.ConversionRecord](),
		failures: queue.New[model.ConversionFailure](),
	}
}

// Init connects if needed, migrates the schema and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.Config, b.deps.DBLog)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
		b.ownsDB = true
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:     b.deps.DB,
		RunID:  b.deps.RunID,
		Mode:   b.deps.Mode,
		Logger: b.deps.Logger,
	})
	if err := b.Backend.Init(); err != nil {
		return err
	}

	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.dbWriter()
	return nil
}

// Close stops the writer after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	b.wg.Wait()
	b.stopChan = nil

	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.ownsDB {
		sqlDB, err := b.deps.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		return sqlDB.Close()
	}
	return nil
}

// StoreAnimation converts and queues a history row.
func (b *Backend) StoreAnimation(a *core.ConvertedAnimation) error {
	b.records.Push(convert.CoreToConversionRecord(*a))
	return nil
}

// RecordFailure converts and queues a failure row.
func (b *Backend) RecordFailure(f *core.ConversionFailure) error {
	b.failures.Push(convert.CoreToConversionFailure(*f))
	return nil
}

// Pending returns the number of rows not yet written.
func (b *Backend) Pending() int {
	return b.records.Len() + b.failures.Len()
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items are put back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) {
	if q.Empty() {
		return
	}

	items := q.Drain()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
	if err != nil {
		log.Error("Failed to write "+name, "count", len(items), "error", err)
		q.Push(items...)
		return
	}
	log.Debug("Wrote "+name, "count", len(items))
}

func (b *Backend) flush() {
	writeQueue(b.deps.DB, b.records, "conversion records", b.deps.Logger)
	writeQueue(b.deps.DB, b.failures, "conversion failures", b.deps.Logger)
}

// dbWriter periodically drains the queues into the DB.
func (b *Backend) dbWriter() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			b.flush()
			return
		case <-ticker.C:
			b.flush()
		}
	}
}
