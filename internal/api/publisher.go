package api

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/animconv/internal/storage/file"
	"github.com/OCAP2/animconv/pkg/core"
)

// Publisher is a storage backend that uploads every converted document.
type Publisher struct {
	client  *Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher wraps a client as a storage backend.
func NewPublisher(client *Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, timeout: 30 * time.Second, logger: logger}
}

// Init fails when the server does not answer its health check.
func (p *Publisher) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.client.Healthcheck(ctx); err != nil {
		return fmt.Errorf("asset server unavailable: %w", err)
	}
	p.logger.Info("Asset server is online", "url", p.client.baseURL)
	return nil
}

func (p *Publisher) Close() error { return nil }

func (p *Publisher) StoreAnimation(a *core.ConvertedAnimation) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	// the document is always sent uncompressed
	name := strings.TrimSuffix(filepath.Base(a.OutputPath), file.GzipExtension)
	err := p.client.Upload(ctx, name, a.Document, core.UploadMetadata{
		RunID:     a.RunID,
		Source:    a.Source,
		Bones:     a.Stats.Bones,
		Keyframes: a.Stats.Keyframes,
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", name, err)
	}
	p.logger.Debug("Published animation", "file", name)
	return nil
}

// RecordFailure is a no-op; only finished documents are published.
func (p *Publisher) RecordFailure(*core.ConversionFailure) error { return nil }
