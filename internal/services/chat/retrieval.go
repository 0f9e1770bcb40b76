// File: internal/services/chat/retrieval.go
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	knowledgeBaseHeader = "===== KNOWLEDGE BASE START ====="
	knowledgeBaseFooter = "===== KNOWLEDGE BASE END ====="
)

// Excerpt is one retrieved document snippet that survived filtering.
type Excerpt struct {
	Source     string
	Page       *int
	Chunk      *int
	Distance   float64
	Similarity float64 // 0..1, derived from distance
	Text       string
}

// RetrievedContext is the outcome of a retrieval call: the formatted
// knowledge-base block plus the deduplicated source labels for citations.
// An empty value means "no retrieved context" and is always safe to use.
type RetrievedContext struct {
	Excerpts []Excerpt
	Block    string
	Sources  []string
}

// HasContent reports whether any excerpt survived filtering.
func (r *RetrievedContext) HasContent() bool {
	return r != nil && len(r.Excerpts) > 0
}

// retrievalRequest is the wire contract of the retrieval service.
type retrievalRequest struct {
	Query string `json:"query"`
	UID   string `json:"uid"`
}

// excerptMetadata mirrors one entry of results.metadatas. Page and chunk are
// optional in the payload.
type excerptMetadata struct {
	Source string `json:"source"`
	Page   *int   `json:"page"`
	Chunk  *int   `json:"chunk"`
}

// retrievalResponse carries parallel arrays indexed identically; only the
// first result set of each outer array is consumed.
type retrievalResponse struct {
	Results struct {
		Documents [][]string          `json:"documents"`
		Metadatas [][]excerptMetadata `json:"metadatas"`
		Distances [][]float64         `json:"distances"`
	} `json:"results"`
}

// RetrievalClient fetches semantically relevant document excerpts for a user
// query. Every failure mode degrades to an empty context - retrieval never
// blocks or fails a turn.
type RetrievalClient struct {
	config     *Config
	httpClient *http.Client
	logger     Logger
}

func NewRetrievalClient(config *Config, logger Logger) *RetrievalClient {
	return &RetrievalClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.RetrievalTimeout},
		logger:     logger,
	}
}

// Retrieve queries the retrieval service and returns the filtered, formatted
// context. The returned value is never nil.
func (c *RetrievalClient) Retrieve(ctx context.Context, query string, userID uint) *RetrievedContext {
	empty := &RetrievedContext{}

	payload, err := json.Marshal(retrievalRequest{
		Query: query,
		UID:   strconv.FormatUint(uint64(userID), 10),
	})
	if err != nil {
		c.logger.Warn("retrieval request marshal failed", "error", err)
		return empty
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.RetrievalURL, bytes.NewReader(payload))
	if err != nil {
		c.logger.Warn("retrieval request build failed", "error", err)
		return empty
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("retrieval call failed, continuing without context", "error", err)
		return empty
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("retrieval service returned non-success status", "status", resp.StatusCode)
		return empty
	}

	var parsed retrievalResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Warn("retrieval response decode failed", "error", err)
		return empty
	}

	excerpts := c.filterResults(&parsed)
	if len(excerpts) == 0 {
		c.logger.Info("retrieval produced no usable excerpts", "user_id", userID)
		return empty
	}

	result := &RetrievedContext{
		Excerpts: excerpts,
		Block:    formatKnowledgeBase(excerpts),
		Sources:  dedupeSources(excerpts),
	}

	c.logger.Info("retrieval context built",
		"excerpts", len(result.Excerpts), "sources", len(result.Sources))
	return result
}

// filterResults walks the first result set of each parallel array, dropping
// empty documents and anything beyond the distance threshold.
func (c *RetrievalClient) filterResults(parsed *retrievalResponse) []Excerpt {
	if len(parsed.Results.Documents) == 0 {
		return nil
	}

	docs := parsed.Results.Documents[0]
	var metas []excerptMetadata
	if len(parsed.Results.Metadatas) > 0 {
		metas = parsed.Results.Metadatas[0]
	}
	var distances []float64
	if len(parsed.Results.Distances) > 0 {
		distances = parsed.Results.Distances[0]
	}

	excerpts := make([]Excerpt, 0, len(docs))
	for i, text := range docs {
		if strings.TrimSpace(text) == "" {
			continue
		}

		var distance float64
		if i < len(distances) {
			distance = distances[i]
		}
		if distance > c.config.DistanceThreshold {
			c.logger.Debug("excerpt dropped by distance threshold", "index", i, "distance", distance)
			continue
		}

		excerpt := Excerpt{
			Distance:   distance,
			Similarity: similarityFromDistance(distance),
			Text:       strings.TrimSpace(text),
		}
		if i < len(metas) {
			excerpt.Source = metas[i].Source
			excerpt.Page = metas[i].Page
			excerpt.Chunk = metas[i].Chunk
		}

		excerpts = append(excerpts, excerpt)
	}

	return excerpts
}

// similarityFromDistance maps a distance to a 0..1 similarity score.
func similarityFromDistance(distance float64) float64 {
	similarity := (2 - distance) / 2
	if similarity < 0 {
		return 0
	}
	return similarity
}

// formatKnowledgeBase renders the excerpts as labeled blocks between
// explicit boundary markers.
func formatKnowledgeBase(excerpts []Excerpt) string {
	blocks := make([]string, 0, len(excerpts))
	for _, e := range excerpts {
		blocks = append(blocks, formatExcerpt(&e))
	}

	var b strings.Builder
	b.WriteString(knowledgeBaseHeader)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString(knowledgeBaseFooter)
	return b.String()
}

// formatExcerpt renders one excerpt as
// "Source: <basename> (Page P, Chunk C) (Similarity: XX.X%)" plus its text.
// Page, chunk and similarity render only when present.
func formatExcerpt(e *Excerpt) string {
	var b strings.Builder
	b.WriteString("Source: ")
	b.WriteString(sourceLabel(e))

	var location []string
	if e.Page != nil {
		location = append(location, fmt.Sprintf("Page %d", *e.Page))
	}
	if e.Chunk != nil {
		location = append(location, fmt.Sprintf("Chunk %d", *e.Chunk))
	}
	if len(location) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(location, ", "))
		b.WriteString(")")
	}

	b.WriteString(fmt.Sprintf(" (Similarity: %.1f%%)", e.Similarity*100))
	b.WriteString("\n")
	b.WriteString(e.Text)
	return b.String()
}

// sourceLabel is the human-readable label of an excerpt's source file.
func sourceLabel(e *Excerpt) string {
	source := strings.TrimSpace(e.Source)
	if source == "" {
		return "unknown"
	}
	return filepath.Base(source)
}

// dedupeSources returns unique source labels in first-seen order, for the
// "available sources" citation list.
func dedupeSources(excerpts []Excerpt) []string {
	var sources []string
	seen := make(map[string]bool)

	for i := range excerpts {
		label := sourceLabel(&excerpts[i])
		if label == "unknown" || seen[label] {
			continue
		}
		seen[label] = true
		sources = append(sources, label)
	}

	return sources
}
