// File: internal/services/chat/types.go
package chat

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// IncomingFile is an uploaded file attached to a user turn. Data is already
// buffered by the transport layer; attachment storage is best-effort.
type IncomingFile struct {
	Name string
	Type string
	Data []byte
}

// TurnRequest carries one inbound user turn through the pipeline.
type TurnRequest struct {
	ChatID string
	Prompt string
	Role   string // defaults to "user"
	Date   string // logical date, defaults to today
	Files  []IncomingFile
}

// StreamEvents are the client-facing callbacks of a streamed turn. OnDelta
// must flush each fragment immediately; an error from it aborts the relay.
// OnSources and OnError are optional.
type StreamEvents struct {
	OnDelta   func(delta string) error
	OnSources func(sources []string)
	OnError   func(message string)
}
