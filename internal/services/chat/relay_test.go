// File: internal/services/chat/relay_test.go
package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelay(t *testing.T, handler http.HandlerFunc, chunkSize int) *CompletionRelay {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testConfig()
	cfg.CompletionURL = server.URL
	cfg.ReadChunkSize = chunkSize
	return NewCompletionRelay(cfg, nopLogger{})
}

func sseBody(lines ...string) string {
	body := ""
	for _, l := range lines {
		body += l + "\n"
	}
	return body
}

func deltaLine(text string) string {
	return `data: {"choices":[{"delta":{"content":"` + text + `"}}]}`
}

func TestRelayStreamAccumulatesDeltas(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(sseBody(
			deltaLine("Hello"),
			deltaLine(", "),
			deltaLine("world"),
			"data: [DONE]",
		)))
	}, 8192)

	var deltas []string
	reply, err := relay.Stream(context.Background(), nil, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello, world", reply)
	assert.Equal(t, []string{"Hello", ", ", "world"}, deltas)
}

// The reply must not depend on how the body is sliced into reads: a tiny
// chunk size forces every line, including the sentinel, to span reads.
func TestRelayStreamChunkBoundaryInvariance(t *testing.T) {
	body := sseBody(
		deltaLine("fragmented "),
		deltaLine("reply"),
		"data: [DONE]",
	)

	for _, chunkSize := range []int{1, 3, 7, 8192} {
		relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}, chunkSize)

		reply, err := relay.Stream(context.Background(), nil, func(string) error { return nil })
		require.NoError(t, err, "chunk size %d", chunkSize)
		assert.Equal(t, "fragmented reply", reply, "chunk size %d", chunkSize)
	}
}

func TestRelayStreamSkipsMalformedLines(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			deltaLine("kept"),
			"data: {not json at all",
			": comment line",
			"",
			deltaLine(" too"),
			"data: [DONE]",
		)))
	}, 8192)

	reply, err := relay.Stream(context.Background(), nil, func(string) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "kept too", reply)
}

func TestRelayStreamStopsAtSentinel(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			deltaLine("before"),
			"data: [DONE]",
			deltaLine("after"),
		)))
	}, 8192)

	reply, err := relay.Stream(context.Background(), nil, func(string) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "before", reply)
}

func TestRelayStreamEOFWithoutTrailingNewline(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(deltaLine("first") + "\n" + deltaLine("last")))
	}, 8192)

	reply, err := relay.Stream(context.Background(), nil, func(string) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "firstlast", reply)
}

func TestRelayStreamUpstreamRejection(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over capacity", http.StatusServiceUnavailable)
	}, 8192)

	reply, err := relay.Stream(context.Background(), nil, func(string) error { return nil })

	require.Error(t, err)
	assert.Empty(t, reply)

	chatErr, ok := err.(*ChatError)
	require.True(t, ok)
	assert.Equal(t, ErrTypeRelay, chatErr.Type)
	assert.Equal(t, "request", chatErr.Operation)
}

func TestRelayStreamCallbackFailureDiscards(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(deltaLine("partial"), "data: [DONE]")))
	}, 8192)

	reply, err := relay.Stream(context.Background(), nil, func(string) error {
		return assert.AnError
	})

	require.Error(t, err)
	assert.Empty(t, reply)
}

func TestApologyFor(t *testing.T) {
	requestErr := NewRelayError("request", "rejected", nil)
	streamErr := NewRelayError("stream", "read failed", nil)

	assert.Equal(t, ApologyUpstreamFailed, ApologyFor(requestErr))
	assert.Equal(t, ApologyStreamError, ApologyFor(streamErr))
}
