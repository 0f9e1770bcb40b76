// File: internal/services/document/config.go
package document

import (
	"fmt"
	"time"
)

type Config struct {
	IngestURL      string        // file-store endpoint of the retrieval service
	StorageDir     string        // root directory for stored documents
	Timeout        time.Duration // per ingestion attempt
	MaxRetries     int
	RetryDelay     time.Duration
	MaxFileSize    int64    // bytes
	AllowedTypes   []string // lowercase extensions without the dot
}

func (c *Config) Validate() error {
	if c.IngestURL == "" {
		return fmt.Errorf("ingest_url is required")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir is required")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		MaxFileSize:  10 << 20,
		AllowedTypes: []string{"txt", "pdf", "docx", "png", "jpg", "jpeg"},
	}
}
