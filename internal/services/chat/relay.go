// File: internal/services/chat/relay.go
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// RelayState tracks a streamed completion call through its lifecycle.
type RelayState int

const (
	StateIdle RelayState = iota
	StateRequesting
	StateStreaming
	StateCompleted
	StateFailed
)

func (s RelayState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRequesting:
		return "REQUESTING"
	case StateStreaming:
		return "STREAMING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// User-facing apology texts streamed in place of a hard failure.
const (
	ApologyUpstreamFailed = "The AI service failed to process the request."
	ApologyStreamError    = "An error occurred while processing your request."
)

// CompletionRelay drives one streamed chat-completion call: it posts the
// message list upstream, decodes the event stream incrementally, forwards
// each text delta through the callback and accumulates the full reply.
//
// A single attempt, no retries. The relay adds no buffering latency beyond
// decoding one event; flushing is the callback's responsibility.
type CompletionRelay struct {
	config     *Config
	httpClient *http.Client
	logger     Logger
}

func NewCompletionRelay(config *Config, logger Logger) *CompletionRelay {
	// No client-level timeout: it would cap the whole body read. The
	// per-call context carries the stream deadline instead.
	return &CompletionRelay{
		config:     config,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Stream performs the completion call and returns the accumulated reply
// text. On any error the accumulated text is discarded and an empty string
// returned; callers must not persist anything in that case.
func (r *CompletionRelay) Stream(
	ctx context.Context,
	messages []openai.ChatCompletionMessage,
	onDelta func(string) error,
) (string, error) {
	state := StateRequesting
	r.logger.Debug("relay state change", "state", state.String())

	payload, err := json.Marshal(openai.ChatCompletionRequest{
		Model:       r.config.Model,
		Messages:    messages,
		Temperature: r.config.Temperature,
		MaxTokens:   r.config.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return "", NewRelayError("request", "could not encode completion request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.StreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.CompletionURL, bytes.NewReader(payload))
	if err != nil {
		return "", NewRelayError("request", "could not build completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+r.config.CompletionAPIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error("completion request failed", "error", err)
		return "", NewRelayError("request", "completion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		r.logger.Error("completion API returned non-success status",
			"status", resp.StatusCode, "body", string(body))
		return "", NewRelayError("request", "completion API rejected the request", nil)
	}

	state = StateStreaming
	r.logger.Debug("relay state change", "state", state.String())

	reply, err := r.relayBody(ctx, resp.Body, onDelta)
	if err != nil {
		state = StateFailed
		r.logger.Debug("relay state change", "state", state.String())
		return "", err
	}

	state = StateCompleted
	r.logger.Debug("relay state change", "state", state.String(), "reply_length", len(reply))
	return reply, nil
}

// relayBody reads the response body in fixed-size chunks and reassembles
// newline-delimited event lines across chunk boundaries. A line split over
// two reads - including the terminating sentinel - decodes exactly as if it
// had arrived whole.
func (r *CompletionRelay) relayBody(ctx context.Context, body io.Reader, onDelta func(string) error) (string, error) {
	var acc strings.Builder
	var carry []byte
	buf := make([]byte, r.config.ReadChunkSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			for {
				idx := bytes.IndexByte(carry, '\n')
				if idx < 0 {
					break
				}
				line := string(bytes.TrimRight(carry[:idx], "\r"))
				carry = carry[idx+1:]

				done, delta := r.decodeLine(line)
				if done {
					return acc.String(), nil
				}
				if delta != "" {
					acc.WriteString(delta)
					if err := onDelta(delta); err != nil {
						return "", NewRelayError("stream", "client write failed", err)
					}
				}
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				// A final line without a trailing newline still counts.
				if len(carry) > 0 {
					done, delta := r.decodeLine(string(bytes.TrimRight(carry, "\r")))
					if !done && delta != "" {
						acc.WriteString(delta)
						if err := onDelta(delta); err != nil {
							return "", NewRelayError("stream", "client write failed", err)
						}
					}
				}
				return acc.String(), nil
			}
			if ctx.Err() != nil {
				return "", NewRelayError("stream", "stream aborted", ctx.Err())
			}
			return "", NewRelayError("stream", "error reading completion stream", readErr)
		}
	}
}

// decodeLine interprets one event line. It reports the terminal sentinel
// and otherwise extracts the text delta, if any. Malformed payloads are
// logged and skipped, never fatal to the stream.
func (r *CompletionRelay) decodeLine(line string) (done bool, delta string) {
	if !strings.HasPrefix(line, dataPrefix) {
		return false, ""
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		return true, ""
	}

	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		r.logger.Warn("skipping malformed stream line", "error", err)
		return false, ""
	}

	if len(chunk.Choices) == 0 {
		return false, ""
	}
	return false, chunk.Choices[0].Delta.Content
}

// ApologyFor maps a relay failure to the in-stream apology text shown to
// the user.
func ApologyFor(err error) string {
	var chatErr *ChatError
	if errors.As(err, &chatErr) && chatErr.Operation == "request" {
		return ApologyUpstreamFailed
	}
	return ApologyStreamError
}
