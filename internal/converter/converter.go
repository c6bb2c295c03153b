// Package converter runs one keyframe file through the full conversion
// pipeline: extraction, timeline building, transition expansion and encoding.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/animconv/internal/easing"
	"github.com/OCAP2/animconv/internal/export"
	"github.com/OCAP2/animconv/internal/parser"
	"github.com/OCAP2/animconv/internal/timeline"
	"github.com/OCAP2/animconv/internal/transition"
	"github.com/OCAP2/animconv/internal/util"
	"github.com/OCAP2/animconv/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Errors a caller may want to match with errors.Is.
var (
	ErrParseFailure      = parser.ErrParseFailure
	ErrMissingField      = parser.ErrMissingField
	ErrMalformedKeyframe = parser.ErrMalformedKeyframe
)

// Config controls a converter.
type Config struct {
	DefaultBone   string
	Steps         int
	AnimationName string
	OutputDir     string
}

// Input is one source file.
type Input struct {
	Path     string
	Contents []byte
}

// Name returns the display name of the input.
func (in Input) Name() string {
	return util.DisplayName(in.Path)
}

// Result is the outcome of a successful conversion.
type Result struct {
	Source     string
	OutputPath string
	Document   []byte
	Animation  core.OutputAnimation
	Stats      core.ConversionStats
	Warnings   []error
	Duration   time.Duration
}

// Converter is safe for concurrent use; it holds no per-file state.
type Converter struct {
	cfg      Config
	parser   *parser.Parser
	expander *transition.Expander
	logger   *slog.Logger

	converted metric.Int64Counter
	failed    metric.Int64Counter
	samples   metric.Int64Counter
	skipped   metric.Int64Counter
}

// New creates a converter. The meter may be a no-op meter.
func New(cfg Config, lib *easing.Library, logger *slog.Logger, m metric.Meter) (*Converter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AnimationName == "" {
		cfg.AnimationName = export.DefaultAnimationName
	}

	c := &Converter{
		cfg:      cfg,
		parser:   parser.NewParser(logger, cfg.DefaultBone),
		expander: transition.New(lib, cfg.Steps),
		logger:   logger,
	}
	c.cfg.Steps = c.expander.Steps

	if m == nil {
		return c, nil
	}

	var err error
	c.converted, err = m.Int64Counter(
		"converter.files.converted",
		metric.WithDescription("Files converted successfully"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating converted counter: %w", err)
	}
	c.failed, err = m.Int64Counter(
		"converter.files.failed",
		metric.WithDescription("Files that could not be converted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	c.samples, err = m.Int64Counter(
		"converter.samples.synthesized",
		metric.WithDescription("Interpolated samples written for curved transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating samples counter: %w", err)
	}
	c.skipped, err = m.Int64Counter(
		"converter.keyframes.skipped",
		metric.WithDescription("Malformed keyframe records that were skipped"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	return c, nil
}

// Config returns the effective configuration.
func (c *Converter) Config() Config {
	return c.cfg
}

// Convert turns one source document into encoded animation text.
// Nothing is written to disk.
func (c *Converter) Convert(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("file", in.Name()))

	res := Result{
		Source:     in.Path,
		OutputPath: util.OutputPath(in.Path, c.cfg.OutputDir),
	}

	src, warnings, err := c.parser.Parse(in.Contents)
	if err != nil {
		c.count(ctx, c.failed, 1, attrs)
		return res, fmt.Errorf("%s: %w", in.Name(), err)
	}
	res.Warnings = warnings

	bones := timeline.Build(src)
	expanded, stats := c.expander.Expand(bones)
	stats.SkippedKeyframes = len(warnings)

	res.Animation = export.Assemble(src, expanded)
	res.Document, err = export.Encode(export.NewDocument(c.cfg.AnimationName, res.Animation))
	if err != nil {
		c.count(ctx, c.failed, 1, attrs)
		return res, fmt.Errorf("%s: %w", in.Name(), err)
	}
	res.Stats = stats
	res.Duration = time.Since(start)

	c.count(ctx, c.converted, 1, attrs)
	c.count(ctx, c.samples, int64(stats.SynthesizedFrames), attrs)
	c.count(ctx, c.skipped, int64(stats.SkippedKeyframes), attrs)

	c.logger.DebugContext(ctx, "Converted animation",
		"file", in.Name(),
		"bones", stats.Bones,
		"keyframes", stats.Keyframes,
		"synthesized", stats.SynthesizedFrames,
		"skipped", stats.SkippedKeyframes,
		"duration", res.Duration)

	return res, nil
}

func (c *Converter) count(ctx context.Context, counter metric.Int64Counter, n int64, opts ...metric.AddOption) {
	if counter == nil || n == 0 {
		return
	}
	counter.Add(ctx, n, opts...)
}
