// Package worker converts source files and hands the results to storage.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/animconv/internal/converter"
	"github.com/OCAP2/animconv/internal/dispatcher"
	"github.com/OCAP2/animconv/internal/influx"
	"github.com/OCAP2/animconv/internal/logging"
	"github.com/OCAP2/animconv/internal/storage"
	"github.com/OCAP2/animconv/internal/util"
	"github.com/OCAP2/animconv/pkg/core"

	"github.com/google/uuid"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// CommandConvert is the dispatcher command for converting one file.
const CommandConvert = "convert"

// ErrPanic wraps a panic recovered while converting a file.
var ErrPanic = errors.New("conversion panicked")

// PointWriter receives metric points. *influx.Manager implements it.
type PointWriter interface {
	WritePoint(ctx context.Context, point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Converter *converter.Converter
	Backend   storage.Backend
	Metrics   PointWriter // optional
	Logger    *slog.Logger
	RunID     uuid.UUID
	Hostname  string
}

// Status is a snapshot of the manager's counters.
type Status struct {
	Converted      int64     `json:"converted"`
	Failed         int64     `json:"failed"`
	LastFile       string    `json:"lastFile,omitempty"`
	LastDurationMs float64   `json:"lastDurationMs"`
	LastAt         time.Time `json:"lastAt,omitzero"`
}

// Manager converts files one at a time.
type Manager struct {
	deps Dependencies
	now  func() time.Time

	mu     sync.Mutex
	status Status
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{deps: deps, now: time.Now}
}

// ConvertFile reads, converts and stores one file. Failures are recorded
// with the backend before being returned.
func (m *Manager) ConvertFile(ctx context.Context, path string) (*core.ConvertedAnimation, error) {
	name := util.DisplayName(path)
	ctx = logging.WithAttrs(ctx, slog.String("file", name))

	start := m.now()
	anim, err := m.convert(ctx, path)
	if err == nil {
		if storeErr := m.deps.Backend.StoreAnimation(anim); storeErr != nil {
			err = fmt.Errorf("storing %s: %w", name, storeErr)
		} else if l, ok := m.deps.Backend.(storage.Locator); ok {
			if p := l.LastOutputPath(); p != "" {
				anim.OutputPath = p
			}
		}
	}
	m.track(path, start, err)
	if err != nil {
		m.deps.Logger.ErrorContext(ctx, "Conversion failed", "error", err)
		m.recordFailure(ctx, path, err)
		return nil, err
	}

	for _, w := range anim.Warnings {
		m.deps.Logger.WarnContext(ctx, "Skipped keyframe", "reason", w)
	}
	m.writePoint(ctx, influx.ConversionPoint(anim, m.deps.Hostname))
	m.deps.Logger.InfoContext(ctx, "Converted file",
		"output", anim.OutputPath,
		"bones", anim.Stats.Bones,
		"keyframes", anim.Stats.Keyframes,
		"duration", anim.Duration)

	return anim, nil
}

func (m *Manager) convert(ctx context.Context, path string) (anim *core.ConvertedAnimation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", util.DisplayName(path), ErrPanic, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", util.DisplayName(path), err)
	}

	res, err := m.deps.Converter.Convert(ctx, converter.Input{Path: path, Contents: contents})
	if err != nil {
		return nil, err
	}

	anim = &core.ConvertedAnimation{
		RunID:       m.deps.RunID,
		Source:      res.Source,
		OutputPath:  res.OutputPath,
		Document:    res.Document,
		Stats:       res.Stats,
		Duration:    res.Duration,
		ConvertedAt: m.now(),
	}
	for _, w := range res.Warnings {
		anim.Warnings = append(anim.Warnings, w.Error())
	}
	return anim, nil
}

func (m *Manager) track(path string, start time.Time, err error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.status.Failed++
	} else {
		m.status.Converted++
	}
	m.status.LastFile = path
	m.status.LastDurationMs = float64(now.Sub(start).Microseconds()) / 1000
	m.status.LastAt = now
}

// Status returns the counters since the manager was created.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) recordFailure(ctx context.Context, path string, cause error) {
	f := &core.ConversionFailure{
		RunID:    m.deps.RunID,
		Source:   path,
		Reason:   cause.Error(),
		FailedAt: m.now(),
	}
	if err := m.deps.Backend.RecordFailure(f); err != nil {
		m.deps.Logger.WarnContext(ctx, "Failed to record conversion failure", "error", err)
	}
	m.writePoint(ctx, influx.FailurePoint(f, m.deps.Hostname))
}

func (m *Manager) writePoint(ctx context.Context, p *influxdb2_write.Point) {
	if m.deps.Metrics == nil {
		return
	}
	if err := m.deps.Metrics.WritePoint(ctx, p); err != nil {
		m.deps.Logger.DebugContext(ctx, "Failed to write metric point", "error", err)
	}
}

// ConvertAll converts files in order. A failing file does not stop the batch;
// cancellation stops it between files. It returns the number of failed files.
func (m *Manager) ConvertAll(ctx context.Context, paths []string) int {
	failed := 0
	for i, path := range paths {
		if ctx.Err() != nil {
			m.deps.Logger.Warn("Batch cancelled", "remaining", len(paths)-i)
			return failed + len(paths) - i
		}
		if _, err := m.ConvertFile(ctx, path); err != nil {
			failed++
		}
	}
	m.deps.Logger.Info("Batch finished", "files", len(paths), "failed", failed)
	return failed
}

// RegisterHandlers registers the convert command. Conversions run on the
// dispatcher's single buffered goroutine so files are processed in order.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CommandConvert, m.handleConvert, dispatcher.Buffered(256), dispatcher.Blocking(), dispatcher.Logged())
}

func (m *Manager) handleConvert(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("%s: missing file path", CommandConvert)
	}
	var errs []error
	for _, path := range e.Args {
		if _, err := m.ConvertFile(context.Background(), path); err != nil {
			errs = append(errs, err)
		}
	}
	return nil, errors.Join(errs...)
}
