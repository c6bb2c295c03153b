package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/OCAP2/animconv/internal/config"
	"github.com/OCAP2/animconv/internal/converter"
	"github.com/OCAP2/animconv/internal/dispatcher"
	"github.com/OCAP2/animconv/internal/easing"
	"github.com/OCAP2/animconv/internal/influx"
	"github.com/OCAP2/animconv/internal/logging"
	"github.com/OCAP2/animconv/internal/monitor"
	intOtel "github.com/OCAP2/animconv/internal/otel"
	"github.com/OCAP2/animconv/internal/storage"
	"github.com/OCAP2/animconv/internal/util"
	"github.com/OCAP2/animconv/internal/watch"
	"github.com/OCAP2/animconv/internal/worker"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
)

// app wires one run of the converter.
type app struct {
	start    time.Time
	runID    uuid.UUID
	hostname string
	mode     string

	logFile     *os.File
	gelfWriter  *gelf.Writer
	slogManager *logging.SlogManager
	logger      *slog.Logger
	zlog        zerolog.Logger

	otelProvider *intOtel.Provider
	influx       *influx.Manager
	backend      *storage.Multi
	worker       *worker.Manager
}

func newApp(ctx context.Context, fs *pflag.FlagSet, opts options) (*app, error) {
	a := &app{
		start:       time.Now(),
		runID:       uuid.New(),
		mode:        runMode(opts),
		slogManager: logging.NewSlogManager(),
	}
	a.hostname, _ = os.Hostname()

	// console only until the config is known
	a.slogManager.Setup(logging.Options{Console: os.Stderr, Level: "info"})
	a.logger = a.slogManager.Logger()

	if err := config.Load(opts.configDir); err != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		a.logger.Debug("Loaded config", "file", viper.ConfigFileUsed())
	}
	if err := bindFlags(fs); err != nil {
		return nil, err
	}

	if err := a.setupLogging(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.setupPipeline(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func runMode(opts options) string {
	switch {
	case opts.listHistory > 0:
		return "history"
	case opts.watchDir != "":
		return "watch"
	default:
		return "batch"
	}
}

func (a *app) setupLogging(ctx context.Context) error {
	level := viper.GetString("logLevel")
	logsDir := viper.GetString("logsDir")

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		a.logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	} else {
		path := logging.LogFilePath(logsDir, appName, a.start)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			a.logger.Error("Failed to create/open log file!", "error", err, "path", path)
		} else {
			a.logFile = f
		}
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		p, err := intOtel.New(ctx, intOtel.Config{
			Enabled:      true,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    a.writerOrNil(),
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			a.logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			a.otelProvider = p
		}
	}

	logOpts := logging.Options{
		Level:   level,
		Console: os.Stderr,
		File:    a.writerOrNil(),
		Context: func() []slog.Attr {
			return []slog.Attr{slog.String("runId", a.runID.String()), slog.String("mode", a.mode)}
		},
	}
	if a.otelProvider != nil {
		logOpts.Provider = a.otelProvider.LoggerProvider()
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGELFWriter(gl.Address)
		if err != nil {
			a.logger.Error("Failed to connect to Graylog", "error", err, "address", gl.Address)
		} else {
			a.gelfWriter = w
			logOpts.GELF = w
		}
	}

	a.slogManager.Setup(logOpts)
	a.logger = a.slogManager.Logger()
	if a.logFile != nil {
		a.logger.Info("Logging to file", "path", a.logFile.Name())
	}

	zerolog.SetGlobalLevel(zerologLevel(level))
	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}}
	if a.logFile != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: a.logFile, TimeFormat: time.RFC3339, NoColor: true})
	}
	a.zlog = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().
		Str("runId", a.runID.String()).Logger()
	return nil
}

// writerOrNil keeps a nil *os.File from becoming a non-nil io.Writer.
func (a *app) writerOrNil() io.Writer {
	if a.logFile == nil {
		return nil
	}
	return a.logFile
}

func zerologLevel(level string) zerolog.Level {
	switch logging.ParseLevel(level) {
	case slog.LevelDebug:
		return zerolog.DebugLevel
	case slog.LevelWarn:
		return zerolog.WarnLevel
	case slog.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (a *app) setupPipeline() error {
	output := config.GetOutputConfig()
	history := config.GetHistoryConfig()
	if a.mode == "history" && (history.Type == "" || history.Type == storage.HistoryNone) {
		return errors.New("--list-history needs a history backend (--history sqlite|postgres)")
	}

	backend, err := storage.NewBackend(storage.Options{
		Output:  output,
		History: history,
		DB:      config.GetDBConfig(),
		Preview: config.GetPreviewConfig(),
		Publish: config.GetPublishConfig(),
		RunID:   a.runID,
		Mode:    a.mode,
		Logger:  a.logger,
		DBLog:   a.zlog.With().Str("component", "database").Logger(),
	})
	if err != nil {
		return fmt.Errorf("creating storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}
	a.backend = backend
	a.logger.Debug("Storage backends initialized", "count", backend.Len(), "history", history.Type)

	if a.mode == "history" {
		return nil
	}

	var metrics worker.PointWriter
	a.influx = influx.NewManager(a.zlog.With().Str("component", "influx").Logger(), config.GetInfluxConfig())
	switch err := a.influx.Connect(context.Background()); {
	case errors.Is(err, influx.ErrDisabled):
		a.influx = nil
	case err != nil:
		a.logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
		_ = a.influx.Close()
		a.influx = nil
	default:
		metrics = a.influx
	}

	meter := intOtelMeter(a.otelProvider)
	cc := config.GetConverterConfig()
	conv, err := converter.New(converter.Config{
		DefaultBone:   cc.DefaultBone,
		Steps:         cc.Steps,
		AnimationName: cc.AnimationName,
		OutputDir:     output.Dir,
	}, easing.Default(), a.logger, meter)
	if err != nil {
		return fmt.Errorf("creating converter: %w", err)
	}

	a.worker = worker.NewManager(worker.Dependencies{
		Converter: conv,
		Backend:   backend,
		Metrics:   metrics,
		Logger:    a.logger,
		RunID:     a.runID,
		Hostname:  a.hostname,
	})
	return nil
}

func intOtelMeter(p *intOtel.Provider) metric.Meter {
	if p == nil {
		return nil
	}
	return p.Meter("github.com/OCAP2/animconv/internal/converter")
}

func (a *app) convertAll(ctx context.Context, files []string) int {
	a.logger.Info("Converting files", "count", len(files))
	return a.worker.ConvertAll(ctx, files)
}

func (a *app) watch(ctx context.Context, dir string) error {
	wc := config.GetWatchConfig()
	status := monitor.NewService(monitor.Dependencies{
		Logger:     a.logger,
		Worker:     a.worker,
		Pending:    a.backend.Pending,
		StatusPath: filepath.Join(viper.GetString("logsDir"), appName+util.StatusSuffix),
		Interval:   wc.StatusInterval,
	})
	if err := status.Start(); err != nil {
		a.logger.Warn("Status monitor not started", "error", err)
	} else {
		defer status.Stop()
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	a.worker.RegisterHandlers(d)
	// drains queued conversions before the final status report
	defer d.Close()

	w := watch.New(watch.Config{
		Dir:        dir,
		Debounce:   wc.Debounce,
		Extensions: wc.Extensions,
	}, d, a.logger)
	return w.Run(ctx)
}

func (a *app) printHistory(out io.Writer, limit int) error {
	h := a.backend.History()
	if h == nil {
		return errors.New("no history backend configured")
	}
	recent, err := h.Recent(limit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONVERTED\tSOURCE\tOUTPUT\tBONES\tKEYFRAMES\tSIZE")
	for _, r := range recent {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			humanize.Time(r.ConvertedAt), r.Source, r.OutputPath,
			r.Stats.Bones, r.Stats.Keyframes, humanize.Bytes(uint64(len(r.Document))))
	}
	return tw.Flush()
}

// close releases everything in reverse order of creation.
func (a *app) close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.logger.Error("Failed to close InfluxDB", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.slogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: flushing logs: %v\n", appName, err)
	}
	if a.otelProvider != nil {
		if err := a.otelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s: shutting down OTel: %v\n", appName, err)
		}
	}
	if a.gelfWriter != nil {
		a.gelfWriter.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}
