// Package api talks to the asset server that converted animations are published to.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/animconv/pkg/core"
)

// UploadPath is the server endpoint receiving animation uploads.
const UploadPath = "/api/v1/animations"

// Client handles communication with the asset server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the asset server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Upload sends one converted document as a multipart form.
func (c *Client) Upload(ctx context.Context, filename string, doc []byte, meta core.UploadMetadata) error {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// Write form fields and file in goroutine
	errCh := make(chan error, 1)
	go func() {
		var err error
		defer func() {
			if err == nil {
				err = writer.Close()
			}
			pw.CloseWithError(err)
			errCh <- err
		}()

		fields := [][2]string{
			{"secret", c.apiKey},
			{"filename", filename},
			{"runId", meta.RunID.String()},
			{"source", meta.Source},
			{"bones", strconv.Itoa(meta.Bones)},
			{"keyframes", strconv.Itoa(meta.Keyframes)},
		}
		for _, f := range fields {
			if err = writer.WriteField(f[0], f[1]); err != nil {
				return
			}
		}

		var part io.Writer
		part, err = writer.CreateFormFile("file", filename)
		if err != nil {
			err = fmt.Errorf("failed to create form file: %w", err)
			return
		}
		if _, err = io.Copy(part, bytes.NewReader(doc)); err != nil {
			err = fmt.Errorf("failed to copy document: %w", err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, pr)
	if err != nil {
		pr.CloseWithError(err)
		<-errCh
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		<-errCh
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return writeErr
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}
