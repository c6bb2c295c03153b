package storage

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/animconv/internal/api"
	"github.com/OCAP2/animconv/internal/config"
	"github.com/OCAP2/animconv/internal/storage/file"
	"github.com/OCAP2/animconv/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/animconv/internal/storage/sqlite"
	"github.com/OCAP2/animconv/internal/storage/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// History backend types.
const (
	HistoryNone     = "none"
	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
)

// Options selects and configures the backends of one run.
type Options struct {
	Output  config.OutputConfig
	History config.HistoryConfig
	DB      config.DBConfig
	Preview config.PreviewConfig
	Publish config.PublishConfig

	RunID  uuid.UUID
	Mode   string
	Logger *slog.Logger
	DBLog  zerolog.Logger
}

// NewBackend creates the storage backends based on configuration.
// The file backend is always present; history and preview are optional.
func NewBackend(opts Options) (*Multi, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	backends := []Backend{
		file.New(file.Config{Compress: opts.Output.Compress}, opts.Logger),
	}

	history, err := newHistoryBackend(opts)
	if err != nil {
		return nil, err
	}
	if history != nil {
		backends = append(backends, history)
	}

	if opts.Preview.Enabled {
		if opts.Preview.URL == "" {
			return nil, fmt.Errorf("preview enabled without url")
		}
		backends = append(backends, websocket.New(websocket.Config{
			URL:    opts.Preview.URL,
			Secret: opts.Preview.Secret,
			RunID:  opts.RunID,
			Mode:   opts.Mode,
		}, opts.Logger))
	}

	if opts.Publish.Enabled {
		if opts.Publish.URL == "" {
			return nil, fmt.Errorf("publish enabled without url")
		}
		backends = append(backends, api.NewPublisher(api.New(opts.Publish.URL, opts.Publish.Secret), opts.Logger))
	}

	return NewMulti(backends...), nil
}

func newHistoryBackend(opts Options) (Backend, error) {
	switch opts.History.Type {
	case "", HistoryNone:
		return nil, nil
	case HistorySQLite:
		return sqlitestorage.New(sqlitestorage.Config{
			Path:  opts.History.SQLitePath,
			RunID: opts.RunID,
			Mode:  opts.Mode,
		}, opts.Logger, opts.DBLog)
	case HistoryPostgres:
		return postgres.New(postgres.Dependencies{
			Config: opts.DB,
			RunID:  opts.RunID,
			Mode:   opts.Mode,
			Logger: opts.Logger,
			DBLog:  opts.DBLog,
		}), nil
	default:
		return nil, fmt.Errorf("unknown history type: %s", opts.History.Type)
	}
}
