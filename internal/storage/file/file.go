// Package file writes converted animations next to their source, or into a
// configured output directory.
package file

import (
	"compress/gzip"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/OCAP2/animconv/pkg/core"
	"github.com/dustin/go-humanize"
)

// GzipExtension is appended to the output path when compression is enabled.
const GzipExtension = ".gz"

// Config holds file output settings.
type Config struct {
	Compress bool
}

// Backend writes the encoded document of every converted animation to disk.
type Backend struct {
	cfg    Config
	logger *slog.Logger

	mu             sync.Mutex
	lastOutputPath string
}

// New creates a file backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, logger: logger}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StoreAnimation writes the document to its output path.
func (b *Backend) StoreAnimation(a *core.ConvertedAnimation) error {
	if a.OutputPath == "" {
		return fmt.Errorf("no output path for %s", a.Source)
	}

	outputPath := a.OutputPath
	if b.cfg.Compress {
		outputPath += GzipExtension
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	if b.cfg.Compress {
		err = writeGzipFile(outputPath, a.Document)
	} else {
		err = writeFile(outputPath, a.Document)
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.lastOutputPath = outputPath
	b.mu.Unlock()

	b.logger.Info("Wrote animation",
		"path", outputPath,
		"size", humanize.Bytes(uint64(len(a.Document))))
	return nil
}

// RecordFailure leaves any earlier output in place.
func (b *Backend) RecordFailure(f *core.ConversionFailure) error {
	return nil
}

// LastOutputPath returns the path of the most recently written file.
func (b *Backend) LastOutputPath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastOutputPath
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}

func writeGzipFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if _, err := gzWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return f.Close()
}
