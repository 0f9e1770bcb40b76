// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// Completion API Configuration
	CompletionURL    string        // full chat-completions endpoint
	CompletionAPIKey string        // bearer token
	Model            string        // model identifier sent upstream
	Temperature      float32       // sampling temperature
	MaxTokens        int           // maximum response tokens
	StreamTimeout    time.Duration // covers the whole streamed call
	ReadChunkSize    int           // body read size; lines may span chunks

	// Retrieval Configuration
	EnableRetrieval   bool          // knowledge-base augmentation toggle
	RetrievalURL      string        // query endpoint of the retrieval service
	RetrievalTimeout  time.Duration // bounded; failures degrade to no context
	DistanceThreshold float64       // results above this distance are dropped

	// Context Configuration
	HistoryWindow int // how many prior messages feed the prompt
}

func (c *Config) Validate() error {
	if c.CompletionURL == "" {
		return fmt.Errorf("completion_url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.StreamTimeout <= 0 {
		return fmt.Errorf("stream_timeout must be positive")
	}
	if c.ReadChunkSize <= 0 {
		return fmt.Errorf("read_chunk_size must be positive")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("history_window must be positive")
	}
	if c.EnableRetrieval && c.RetrievalURL == "" {
		return fmt.Errorf("retrieval_url is required when retrieval is enabled")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Temperature:       0.7,
		MaxTokens:         2000,
		StreamTimeout:     10 * time.Minute,
		ReadChunkSize:     8192,
		EnableRetrieval:   true,
		RetrievalTimeout:  15 * time.Second,
		DistanceThreshold: 1.5,
		HistoryWindow:     20,
	}
}
