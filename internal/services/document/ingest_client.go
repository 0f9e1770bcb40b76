// File: internal/services/document/ingest_client.go
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// IngestClient submits stored documents to the retrieval service for
// chunking and indexing. The service reads the multipart file plus the
// owning user id and a source label it echoes back in query metadata.
type IngestClient struct {
	config     *Config
	httpClient *http.Client
	logger     Logger
}

func NewIngestClient(config *Config, logger Logger) *IngestClient {
	return &IngestClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// Ingest uploads the file at path, retrying transient failures.
func (c *IngestClient) Ingest(ctx context.Context, path string, userID uint) error {
	retry := &RetryConfig{MaxAttempts: c.config.MaxRetries, Delay: c.config.RetryDelay}
	return RetryWithBackoff(ctx, retry, func(ctx context.Context) error {
		return c.ingestOnce(ctx, path, userID)
	})
}

func (c *IngestClient) ingestOnce(ctx context.Context, path string, userID uint) error {
	f, err := os.Open(path)
	if err != nil {
		return NewStorageError("could not open document for ingestion", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return NewIngestError("could not build ingestion form", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return NewIngestError("could not read document contents", err)
	}
	if err := writer.WriteField("uid", fmt.Sprintf("%d", userID)); err != nil {
		return NewIngestError("could not build ingestion form", err)
	}
	if err := writer.WriteField("source", filepath.Base(path)); err != nil {
		return NewIngestError("could not build ingestion form", err)
	}
	if err := writer.Close(); err != nil {
		return NewIngestError("could not finalize ingestion form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.IngestURL, &body)
	if err != nil {
		return NewIngestError("could not build ingestion request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("ingestion attempt failed", "path", path, "error", err)
		return NewIngestError("ingestion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("ingestion rejected", "path", path,
			"status", resp.StatusCode, "body", string(snippet))
		return NewIngestError(fmt.Sprintf("ingestion service returned status %d", resp.StatusCode), nil)
	}

	return nil
}
